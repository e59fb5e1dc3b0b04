// Package seed loads the demo dataset: four accounts, two Copenhagen stores
// and a week of shifts starting on the Monday of the current week.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/models"
)

// Hasher turns a plain password into a stored hash
type Hasher func(password string) (string, error)

type demoUser struct {
	key      string
	username string
	password string
	user     models.User
}

type demoShift struct {
	user     string
	location string
	day      int // days after Monday
	start    string
	end      string
	role     string
	status   models.ShiftStatus
	notes    string
}

func ptr[T any](v T) *T { return &v }

var demoUsers = []demoUser{
	{
		key: "admin", username: "Administrator", password: "admin123",
		user: models.User{
			Email: "admin@timetidy.com", FirstName: "System", LastName: "Administrator",
			Role: models.RoleAdmin, HourlyRate: ptr(30.00), Phone: ptr("+45 12 34 56 78"),
		},
	},
	{
		key: "employee", username: "jdoe", password: "password",
		user: models.User{
			Email: "john.doe@example.com", FirstName: "John", LastName: "Doe",
			Role: models.RoleEmployee, HourlyRate: ptr(18.50), Phone: ptr("+45 98 76 54 32"),
		},
	},
	{
		key: "manager", username: "jsmith", password: "password",
		user: models.User{
			Email: "jane.smith@example.com", FirstName: "Jane", LastName: "Smith",
			Role: models.RoleManager, HourlyRate: ptr(22.00), Phone: ptr("+45 11 22 33 44"),
		},
	},
	{
		key: "guest", username: "guest12345", password: "temp123",
		user: models.User{
			Email: "temp@example.com", FirstName: "Temp", LastName: "Employee",
			Role: models.RoleEmployee, HourlyRate: ptr(16.00),
			IsTemporary: true, MustResetPassword: true,
		},
	},
}

var demoLocations = map[string]models.Location{
	"downtown": {
		Name: "Main Store - Downtown", Address: "123 Main Street", City: "Copenhagen",
		PostalCode: "1000", Country: "Denmark",
		Latitude: ptr(55.6761), Longitude: ptr(12.5683), GeofenceRadius: ptr(50.0),
	},
	"norrebro": {
		Name: "Branch Store - Nørrebro", Address: "456 Nørrebrogade", City: "Copenhagen",
		PostalCode: "2200", Country: "Denmark",
		Latitude: ptr(55.6894), Longitude: ptr(12.5518), GeofenceRadius: ptr(50.0),
	},
}

var demoShifts = []demoShift{
	{"employee", "downtown", 0, "09:00", "17:00", "Cashier", models.ShiftStatusScheduled, "Morning shift"},
	{"manager", "downtown", 0, "13:00", "21:00", "Manager", models.ShiftStatusScheduled, "Afternoon shift"},
	{"employee", "norrebro", 1, "10:00", "18:00", "Cashier", models.ShiftStatusCancelled, "Cancelled due to holiday"},
	{"manager", "downtown", 2, "08:00", "16:00", "Manager", models.ShiftStatusScheduled, "Midweek shift"},
	{"employee", "downtown", 3, "09:00", "17:00", "Cashier", models.ShiftStatusScheduled, "Regular shift"},
	{"guest", "norrebro", 4, "14:00", "22:00", "Cashier", models.ShiftStatusScheduled, "Evening shift"},
	{"manager", "downtown", 5, "09:00", "17:00", "Manager", models.ShiftStatusScheduled, "Weekend shift"},
}

// Result reports what Run created
type Result struct {
	Users     int
	Locations int
	Shifts    int
}

// Run loads the demo dataset into repos. A store that already holds users is
// left untouched and Run returns a zero Result.
func Run(ctx context.Context, repos *repository.Repositories, hash Hasher, now time.Time, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	existing, err := repos.User.List(ctx, models.UserFilter{})
	if err != nil {
		return Result{}, fmt.Errorf("failed to check for existing users: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Store already populated, skipping seed", zap.Int("users", len(existing)))
		return Result{}, nil
	}

	var result Result
	userIDs := make(map[string]string, len(demoUsers))
	for _, demo := range demoUsers {
		hashed, err := hash(demo.password)
		if err != nil {
			return result, fmt.Errorf("failed to hash password for %s: %w", demo.username, err)
		}

		user := demo.user
		user.ID = uuid.NewString()
		user.Username = demo.username
		user.PasswordHash = hashed
		user.IsActive = true
		user.CreatedAt = now
		user.UpdatedAt = now

		created, err := repos.User.Create(ctx, user)
		if err != nil {
			return result, fmt.Errorf("failed to create user %s: %w", demo.username, err)
		}
		userIDs[demo.key] = created.ID
		result.Users++
	}

	locationIDs := make(map[string]string, len(demoLocations))
	for key, location := range demoLocations {
		location.ID = uuid.NewString()
		location.IsActive = true
		location.CreatedAt = now
		location.UpdatedAt = now

		created, err := repos.Location.Create(ctx, location)
		if err != nil {
			return result, fmt.Errorf("failed to create location %s: %w", location.Name, err)
		}
		locationIDs[key] = created.ID
		result.Locations++
	}

	monday := mondayOf(now)
	shifts := make([]models.Shift, 0, len(demoShifts))
	for _, demo := range demoShifts {
		shifts = append(shifts, models.Shift{
			ID:         uuid.NewString(),
			UserID:     userIDs[demo.user],
			LocationID: locationIDs[demo.location],
			Date:       monday.AddDate(0, 0, demo.day),
			StartTime:  demo.start,
			EndTime:    demo.end,
			Role:       demo.role,
			Status:     demo.status,
			Notes:      ptr(demo.notes),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	created, err := repos.Shift.CreateBatch(ctx, shifts)
	if err != nil {
		return result, fmt.Errorf("failed to create shifts: %w", err)
	}
	result.Shifts = len(created)

	if _, err := repos.Settings.Get(ctx); err != nil {
		return result, fmt.Errorf("failed to read settings: %w", err)
	}

	logger.Info("Demo data loaded",
		zap.Int("users", result.Users),
		zap.Int("locations", result.Locations),
		zap.Int("shifts", result.Shifts),
	)
	return result, nil
}

// mondayOf returns the Monday of t's week as a calendar date in UTC
func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
