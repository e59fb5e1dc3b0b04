package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timetidy/timetidy-service/internal/models"
)

var userCols = []string{
	"id", "username", "email", "password_hash", "first_name", "last_name", "role", "is_active",
	"is_temporary", "must_reset_password", "hourly_rate", "phone", "last_login_at", "version", "created_at", "updated_at",
}

var shiftCols = []string{
	"id", "user_id", "location_id", "date", "start_time", "end_time", "role", "status", "notes",
	"version", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(userCols).
			AddRow("u1", "jdoe", "john.doe@example.com", "hash", "John", "Doe", "employee", true,
				false, false, 18.5, nil, nil, 3, now, now)
		mock.ExpectQuery(`SELECT id, username, .* FROM users WHERE id = \$1`).
			WithArgs("u1").
			WillReturnRows(rows)

		user, err := repo.GetByID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Username)
		assert.Equal(t, models.RoleEmployee, user.Role)
		require.NotNil(t, user.HourlyRate)
		assert.Equal(t, 18.5, *user.HourlyRate)
		assert.Nil(t, user.Phone)
		assert.Equal(t, 3, user.Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure is wrapped", func(t *testing.T) {
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs("u1").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByID(ctx, "u1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get user")
		assert.NotErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	role := models.RoleManager
	active := true
	mock.ExpectQuery(`FROM users WHERE role = \$1 AND is_active = \$2 AND \(first_name ILIKE \$3 OR last_name ILIKE \$3 OR username ILIKE \$3 OR email ILIKE \$3\) ORDER BY username ASC`).
		WithArgs(role, active, "%smith%").
		WillReturnRows(sqlmock.NewRows(userCols))

	users, err := repo.List(context.Background(), models.UserFilter{Role: &role, IsActive: &active, Search: "smith"})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	tests := []struct {
		constraint string
		field      string
	}{
		{"users_username_key", "username"},
		{"users_email_key", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			mock.ExpectQuery(`INSERT INTO users`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			_, err := repo.Create(context.Background(), models.User{ID: "u1", Username: "jdoe"})
			var dup *DuplicateError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.field, dup.Field)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ValueTooLong(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "22001", Message: "value too long for type character varying(50)"})

	_, err := repo.Create(context.Background(), models.User{ID: "u1", Username: "jdoe"})
	assert.ErrorIs(t, err, ErrValueTooLong)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateVersionMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	user := models.User{ID: "u1", Version: 2}

	t.Run("stale", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := repo.Update(context.Background(), user)
		assert.ErrorIs(t, err, ErrStaleWrite)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("gone", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users`).
			WillReturnRows(sqlmock.NewRows(userCols))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := repo.Update(context.Background(), user)
		assert.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "u1"))

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u2"), ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepository_CreateBatch(t *testing.T) {
	date := time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)
	shifts := []models.Shift{
		{ID: "s1", UserID: "u1", LocationID: "l1", Date: date, StartTime: "09:00", EndTime: "17:00", Role: "Cashier", Status: models.ShiftStatusScheduled},
		{ID: "s2", UserID: "u1", LocationID: "l1", Date: date.AddDate(0, 0, 2), StartTime: "09:00", EndTime: "17:00", Role: "Cashier", Status: models.ShiftStatusScheduled},
	}
	row := func(s models.Shift) *sqlmock.Rows {
		return sqlmock.NewRows(shiftCols).
			AddRow(s.ID, s.UserID, s.LocationID, s.Date, s.StartTime, s.EndTime, s.Role, string(s.Status), nil, 1, now, now)
	}

	t.Run("commits all", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewShiftRepository(db)

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(`INSERT INTO shifts`)
		prep.ExpectQuery().WillReturnRows(row(shifts[0]))
		prep.ExpectQuery().WillReturnRows(row(shifts[1]))
		mock.ExpectCommit()

		created, err := repo.CreateBatch(context.Background(), shifts)
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, "s2", created[1].ID)
		assert.Equal(t, 1, created[1].Version)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewShiftRepository(db)

		mock.ExpectBegin()
		prep := mock.ExpectPrepare(`INSERT INTO shifts`)
		prep.ExpectQuery().WillReturnRows(row(shifts[0]))
		prep.ExpectQuery().WillReturnError(errors.New("foreign key violation"))
		mock.ExpectRollback()

		_, err := repo.CreateBatch(context.Background(), shifts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create shift batch")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestShiftRepository_ListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewShiftRepository(db)

	from := time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC)
	status := models.ShiftStatusScheduled
	mock.ExpectQuery(`FROM shifts WHERE user_id = \$1 AND date >= \$2 AND status = \$3 ORDER BY date ASC, start_time ASC`).
		WithArgs("u1", from, status).
		WillReturnRows(sqlmock.NewRows(shiftCols))

	_, err := repo.List(context.Background(), models.ShiftFilter{UserID: "u1", StartDate: &from, Status: &status})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepository_OpenCheckInConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepository(db)

	mock.ExpectQuery(`INSERT INTO check_ins`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "check_ins_one_open_per_user"})

	_, err := repo.Create(context.Background(), models.CheckIn{ID: "c1", UserID: "u1", LocationID: "l1"})
	assert.ErrorIs(t, err, ErrOpenCheckIn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepository_ListClosedOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckInRepository(db)

	mock.ExpectQuery(`FROM check_ins WHERE user_id = \$1 AND check_out_time IS NOT NULL ORDER BY check_in_time DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	checkIns, err := repo.List(context.Background(), models.CheckInFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, checkIns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)

	t.Run("defaults when never saved", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSettingsRepository(db)

		mock.ExpectQuery(`SELECT data, version, updated_at FROM settings WHERE id = 1`).
			WillReturnError(sql.ErrNoRows)

		settings, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultSettings(), *settings)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stored document over defaults", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSettingsRepository(db)

		mock.ExpectQuery(`FROM settings WHERE id = 1`).
			WillReturnRows(sqlmock.NewRows([]string{"data", "version", "updated_at"}).
				AddRow([]byte(`{"companyName":"Tidy Bakery","overtimeThreshold":37}`), 4, now))

		settings, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Tidy Bakery", settings.CompanyName)
		assert.Equal(t, 37, settings.OvertimeThreshold)
		assert.Equal(t, "Europe/Copenhagen", settings.TimeZone)
		assert.Equal(t, 4, settings.Version)
		assert.Equal(t, now, settings.UpdatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("first save inserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSettingsRepository(db)

		settings := models.DefaultSettings()
		settings.CompanyName = "Tidy Bakery"
		settings.UpdatedAt = now
		mock.ExpectQuery(`INSERT INTO settings .* ON CONFLICT \(id\) DO NOTHING`).
			WithArgs(sqlmock.AnyArg(), now).
			WillReturnRows(sqlmock.NewRows([]string{"data", "version", "updated_at"}).
				AddRow([]byte(`{"companyName":"Tidy Bakery"}`), 1, now))

		saved, err := repo.Update(ctx, settings)
		require.NoError(t, err)
		assert.Equal(t, 1, saved.Version)
		assert.Equal(t, "Tidy Bakery", saved.CompanyName)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale update", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSettingsRepository(db)

		settings := models.DefaultSettings()
		settings.Version = 2
		mock.ExpectQuery(`UPDATE settings SET data = \$1, version = version \+ 1, updated_at = \$2 WHERE id = 1 AND version = \$3`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 2).
			WillReturnRows(sqlmock.NewRows([]string{"data", "version", "updated_at"}))

		_, err := repo.Update(ctx, settings)
		assert.ErrorIs(t, err, ErrStaleWrite)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWhere(t *testing.T) {
	var w where
	assert.Empty(t, w.String())

	w.add("a = ?", 1)
	w.addRaw("b IS NULL")
	w.add("(c = ? OR d = ?)", "x")
	assert.Equal(t, "WHERE a = $1 AND b IS NULL AND (c = $2 OR d = $2)", w.String())
	assert.Equal(t, []interface{}{1, "x"}, w.args)
}
