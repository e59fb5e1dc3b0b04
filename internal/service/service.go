package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/metrics"
	"github.com/timetidy/timetidy-service/internal/models"
)

// Publisher delivers lifecycle events to connected clients
type Publisher interface {
	Publish(event models.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.Event) {}

// Deps are the collaborators shared by every service
type Deps struct {
	Repos   *repository.Repositories
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Events  Publisher
	Now     func() time.Time
	NewID   func() string
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = nopPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return d
}

func (d Deps) publish(eventType models.EventType, data interface{}, recipients ...string) {
	d.Events.Publish(models.Event{
		Type:       eventType,
		Data:       data,
		Recipients: recipients,
		At:         d.Now(),
	})
}

// lookupUser resolves a user id, reporting a field error when it does not exist
func (d Deps) lookupUser(ctx context.Context, field, id string) (*models.User, error) {
	user, err := d.Repos.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidField(field, "User not found")
		}
		return nil, storeError(err, "User not found")
	}
	return user, nil
}

// lookupLocation resolves a location id, reporting a field error when it does not exist
func (d Deps) lookupLocation(ctx context.Context, field, id string) (*models.Location, error) {
	location, err := d.Repos.Location.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidField(field, "Location not found")
		}
		return nil, storeError(err, "Location not found")
	}
	return location, nil
}

// lookupShift resolves a shift id, reporting a field error when it does not exist
func (d Deps) lookupShift(ctx context.Context, field, id, message string) (*models.Shift, error) {
	shift, err := d.Repos.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidField(field, message)
		}
		return nil, storeError(err, message)
	}
	return shift, nil
}

// relations resolves and caches related users, locations and shifts while a
// listing is being decorated. Missing rows are left nil.
type relations struct {
	ctx       context.Context
	repos     *repository.Repositories
	users     map[string]*models.User
	locations map[string]*models.Location
	shifts    map[string]*models.Shift
}

func (d Deps) relations(ctx context.Context) *relations {
	return &relations{
		ctx:       ctx,
		repos:     d.Repos,
		users:     make(map[string]*models.User),
		locations: make(map[string]*models.Location),
		shifts:    make(map[string]*models.Shift),
	}
}

func (r *relations) user(id string) *models.User {
	if u, ok := r.users[id]; ok {
		return u
	}
	u, err := r.repos.User.GetByID(r.ctx, id)
	if err != nil {
		u = nil
	}
	r.users[id] = u
	return u
}

func (r *relations) optionalUser(id *string) *models.User {
	if id == nil {
		return nil
	}
	return r.user(*id)
}

func (r *relations) location(id string) *models.Location {
	if l, ok := r.locations[id]; ok {
		return l
	}
	l, err := r.repos.Location.GetByID(r.ctx, id)
	if err != nil {
		l = nil
	}
	r.locations[id] = l
	return l
}

func (r *relations) shift(id string) *models.Shift {
	if s, ok := r.shifts[id]; ok {
		return s
	}
	s, err := r.repos.Shift.GetByID(r.ctx, id)
	if err != nil {
		s = nil
	}
	if s != nil {
		s.User = r.user(s.UserID)
		s.Location = r.location(s.LocationID)
	}
	r.shifts[id] = s
	return s
}

func (r *relations) optionalShift(id *string) *models.Shift {
	if id == nil {
		return nil
	}
	return r.shift(*id)
}

// settingsLocation returns the company time zone, UTC when it cannot be loaded
func (d Deps) settingsLocation(ctx context.Context) (*models.Settings, *time.Location, error) {
	settings, err := d.Repos.Settings.Get(ctx)
	if err != nil {
		return nil, nil, storeError(err, "Settings not found")
	}
	loc, err := time.LoadLocation(settings.TimeZone)
	if err != nil {
		d.Logger.Warn("Unknown company time zone, using UTC", zap.String("time_zone", settings.TimeZone))
		loc = time.UTC
	}
	return settings, loc, nil
}
