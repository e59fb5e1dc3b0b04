package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/timetidy/timetidy-service/internal/db/memory"
	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/metrics"
	"github.com/timetidy/timetidy-service/internal/models"
)

const testSecret = "test-secret-0123456789"

type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Publish(event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]models.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

// fixture is a fresh in-memory store with one user per role and a geofenced location
type fixture struct {
	t        *testing.T
	ctx      context.Context
	repos    *repository.Repositories
	now      time.Time
	events   *recorder
	metrics  *metrics.Metrics
	svc      *Services
	admin    *models.User
	manager  *models.User
	employee *models.User
	other    *models.User
	downtown *models.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		repos:   memory.NewRepositories(),
		now:     time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC),
		events:  &recorder{},
		metrics: metrics.NewNop(),
	}

	f.svc = NewServices(
		Deps{Repos: f.repos, Logger: zap.NewNop(), Metrics: f.metrics, Events: f.events, Now: f.clock},
		JWTConfig{Secret: testSecret, ExpiresIn: 24},
		NewLoginLimiter(3, 15*time.Minute),
		bcrypt.MinCost,
	)

	f.admin = f.addUser("Administrator", models.RoleAdmin, "Admin1234")
	f.manager = f.addUser("jsmith", models.RoleManager, "Manager123")
	f.employee = f.addUser("jdoe", models.RoleEmployee, "Employee123")
	f.other = f.addUser("asmith", models.RoleEmployee, "Employee456")
	f.downtown = f.addLocation("Main Store - Downtown", ptr(55.6761), ptr(12.5683), ptr(50.0))

	return f
}

func (f *fixture) clock() time.Time {
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) addUser(username string, role models.UserRole, password string) *models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(f.t, err)

	user, err := f.repos.User.Create(f.ctx, models.User{
		ID:           "user-" + username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		FirstName:    username,
		LastName:     "Test",
		Role:         role,
		IsActive:     true,
		HourlyRate:   ptr(20.0),
		CreatedAt:    f.now,
		UpdatedAt:    f.now,
	})
	require.NoError(f.t, err)
	return user
}

func (f *fixture) addLocation(name string, lat, lon, radius *float64) *models.Location {
	f.t.Helper()

	location, err := f.repos.Location.Create(f.ctx, models.Location{
		ID:             "loc-" + name,
		Name:           name,
		Address:        "123 Main Street",
		City:           "Copenhagen",
		PostalCode:     "1000",
		Country:        "Denmark",
		Latitude:       lat,
		Longitude:      lon,
		GeofenceRadius: radius,
		IsActive:       true,
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	})
	require.NoError(f.t, err)
	return location
}

func (f *fixture) shiftFor(user *models.User, date, start, end string) *models.Shift {
	f.t.Helper()

	shift, err := f.svc.Shift.CreateShift(f.ctx, f.manager, models.ShiftRequest{
		UserID:     user.ID,
		LocationID: f.downtown.ID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Role:       "Cashier",
	})
	require.NoError(f.t, err)
	return shift
}

func (f *fixture) settings(mutate func(*models.Settings)) {
	f.t.Helper()

	settings, err := f.repos.Settings.Get(f.ctx)
	require.NoError(f.t, err)
	mutate(settings)
	_, err = f.repos.Settings.Update(f.ctx, *settings)
	require.NoError(f.t, err)
}

func ptr[T any](v T) *T {
	return &v
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()

	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind, "error: %v", err)
	return se
}
