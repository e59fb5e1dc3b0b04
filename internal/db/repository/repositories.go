package repository

import (
	"context"

	"github.com/timetidy/timetidy-service/internal/db"
)

// Repositories provides access to all repository instances
type Repositories struct {
	User     UserStore
	Location LocationStore
	Shift    ShiftStore
	CheckIn  CheckInStore
	Swap     SwapStore
	TimeOff  TimeOffStore
	Settings SettingsStore

	// Ping reports store health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewRepositories creates a new repositories container backed by PostgreSQL
func NewRepositories(database *db.Postgres) *Repositories {
	return &Repositories{
		User:     NewUserRepository(database.DB),
		Location: NewLocationRepository(database.DB),
		Shift:    NewShiftRepository(database.DB),
		CheckIn:  NewCheckInRepository(database.DB),
		Swap:     NewSwapRepository(database.DB),
		TimeOff:  NewTimeOffRepository(database.DB),
		Settings: NewSettingsRepository(database.DB),
		Ping:     database.HealthCheck,
	}
}

// HealthCheck pings the backing store
func (r *Repositories) HealthCheck(ctx context.Context) error {
	if r.Ping == nil {
		return nil
	}
	return r.Ping(ctx)
}
