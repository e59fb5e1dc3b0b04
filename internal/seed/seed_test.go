package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/db/memory"
	"github.com/timetidy/timetidy-service/internal/models"
)

func plainHash(password string) (string, error) { return "hashed:" + password, nil }

func TestRun(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	// a Thursday
	now := time.Date(2024, 12, 26, 15, 30, 0, 0, time.UTC)

	result, err := Run(ctx, repos, plainHash, now, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 4, Locations: 2, Shifts: 7}, result)

	users, err := repos.User.List(ctx, models.UserFilter{})
	require.NoError(t, err)
	require.Len(t, users, 4)

	byName := make(map[string]models.User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	assert.Equal(t, models.RoleAdmin, byName["Administrator"].Role)
	assert.Equal(t, "hashed:password", byName["jdoe"].PasswordHash)
	assert.True(t, byName["guest12345"].IsTemporary)
	assert.True(t, byName["guest12345"].MustResetPassword)

	shifts, err := repos.Shift.List(ctx, models.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, shifts, 7)

	monday := time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC)
	cancelled := 0
	for _, s := range shifts {
		assert.False(t, s.Date.Before(monday), s.Date)
		assert.True(t, s.Date.Before(monday.AddDate(0, 0, 7)), s.Date)
		if s.Status == models.ShiftStatusCancelled {
			cancelled++
		}
	}
	assert.Equal(t, 1, cancelled)
}

func TestRunSkipsPopulatedStore(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	now := time.Date(2024, 12, 23, 8, 0, 0, 0, time.UTC)

	_, err := Run(ctx, repos, plainHash, now, nil)
	require.NoError(t, err)

	result, err := Run(ctx, repos, plainHash, now, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)

	users, err := repos.User.List(ctx, models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		day  time.Time
		want string
	}{
		{time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), "2024-12-23"},
		{time.Date(2024, 12, 29, 23, 59, 0, 0, time.UTC), "2024-12-23"},
		{time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), "2024-12-30"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mondayOf(tt.day).Format(models.DateLayout))
	}
}
