// Package memory is a process-local implementation of the repository
// interfaces. One RWMutex guards every collection, so cross-collection checks
// (such as the open check-in rule) are atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/timetidy/timetidy-service/internal/db/repository"
	"github.com/timetidy/timetidy-service/internal/models"
)

// Store holds all collections
type Store struct {
	mu sync.RWMutex

	users     map[string]models.User
	locations map[string]models.Location
	shifts    map[string]models.Shift
	checkIns  map[string]models.CheckIn
	swaps     map[string]models.ShiftSwap
	timeOff   map[string]models.TimeOffRequest
	settings  *models.Settings
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:     make(map[string]models.User),
		locations: make(map[string]models.Location),
		shifts:    make(map[string]models.Shift),
		checkIns:  make(map[string]models.CheckIn),
		swaps:     make(map[string]models.ShiftSwap),
		timeOff:   make(map[string]models.TimeOffRequest),
	}
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:     userStore{s},
		Location: locationStore{s},
		Shift:    shiftStore{s},
		CheckIn:  checkInStore{s},
		Swap:     swapStore{s},
		TimeOff:  timeOffStore{s},
		Settings: settingsStore{s},
	}
}

// NewRepositories creates a fresh, empty in-memory store
func NewRepositories() *repository.Repositories {
	return New().Repositories()
}

type userStore struct{ s *Store }

func (u userStore) GetByID(_ context.Context, id string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (u userStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, user := range u.s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u userStore) List(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	users := []models.User{}
	for _, user := range u.s.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && user.IsActive != *filter.IsActive {
			continue
		}
		if search != "" && !containsAny(search, user.FirstName, user.LastName, user.Username, user.Email) {
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (u userStore) Create(_ context.Context, user models.User) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if err := u.s.checkUserUnique(user); err != nil {
		return nil, err
	}
	user.Version = 1
	u.s.users[user.ID] = user
	return &user, nil
}

func (u userStore) Update(_ context.Context, user models.User) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	current, ok := u.s.users[user.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if current.Version != user.Version {
		return nil, repository.ErrStaleWrite
	}
	if err := u.s.checkUserUnique(user); err != nil {
		return nil, err
	}

	user.Username = current.Username
	user.CreatedAt = current.CreatedAt
	user.Version++
	u.s.users[user.ID] = user
	return &user, nil
}

// Delete removes the user and everything that references them
func (u userStore) Delete(_ context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, ok := u.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(u.s.users, id)

	for shiftID, shift := range u.s.shifts {
		if shift.UserID == id {
			u.s.deleteShiftLocked(shiftID)
		}
	}
	for checkInID, checkIn := range u.s.checkIns {
		if checkIn.UserID == id {
			delete(u.s.checkIns, checkInID)
		}
	}
	for swapID, swap := range u.s.swaps {
		if swap.RequesterID == id {
			delete(u.s.swaps, swapID)
		} else if swap.TargetUserID != nil && *swap.TargetUserID == id {
			swap.TargetUserID = nil
			u.s.swaps[swapID] = swap
		}
	}
	for requestID, request := range u.s.timeOff {
		if request.UserID == id {
			delete(u.s.timeOff, requestID)
		}
	}
	return nil
}

func (s *Store) checkUserUnique(user models.User) error {
	for _, other := range s.users {
		if other.ID == user.ID {
			continue
		}
		if strings.EqualFold(other.Username, user.Username) {
			return &repository.DuplicateError{Field: "username"}
		}
		if strings.EqualFold(other.Email, user.Email) {
			return &repository.DuplicateError{Field: "email"}
		}
	}
	return nil
}

type locationStore struct{ s *Store }

func (l locationStore) GetByID(_ context.Context, id string) (*models.Location, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	location, ok := l.s.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &location, nil
}

func (l locationStore) List(_ context.Context, activeOnly bool) ([]models.Location, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	locations := []models.Location{}
	for _, location := range l.s.locations {
		if activeOnly && !location.IsActive {
			continue
		}
		locations = append(locations, location)
	}

	sort.Slice(locations, func(i, j int) bool { return locations[i].Name < locations[j].Name })
	return locations, nil
}

func (l locationStore) Create(_ context.Context, location models.Location) (*models.Location, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	location.Version = 1
	l.s.locations[location.ID] = location
	return &location, nil
}

func (l locationStore) Update(_ context.Context, location models.Location) (*models.Location, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	current, ok := l.s.locations[location.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if current.Version != location.Version {
		return nil, repository.ErrStaleWrite
	}

	location.CreatedAt = current.CreatedAt
	location.Version++
	l.s.locations[location.ID] = location
	return &location, nil
}

type shiftStore struct{ s *Store }

func (sh shiftStore) GetByID(_ context.Context, id string) (*models.Shift, error) {
	sh.s.mu.RLock()
	defer sh.s.mu.RUnlock()

	shift, ok := sh.s.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &shift, nil
}

func (sh shiftStore) List(_ context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	sh.s.mu.RLock()
	defer sh.s.mu.RUnlock()

	shifts := []models.Shift{}
	for _, shift := range sh.s.shifts {
		switch {
		case filter.UserID != "" && shift.UserID != filter.UserID:
		case filter.LocationID != "" && shift.LocationID != filter.LocationID:
		case filter.StartDate != nil && shift.Date.Before(*filter.StartDate):
		case filter.EndDate != nil && shift.Date.After(*filter.EndDate):
		case filter.Status != nil && shift.Status != *filter.Status:
		case filter.Role != "" && shift.Role != filter.Role:
		default:
			shifts = append(shifts, shift)
		}
	}

	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].Date.Equal(shifts[j].Date) {
			return shifts[i].Date.Before(shifts[j].Date)
		}
		return shifts[i].StartTime < shifts[j].StartTime
	})
	return shifts, nil
}

func (sh shiftStore) Create(_ context.Context, shift models.Shift) (*models.Shift, error) {
	sh.s.mu.Lock()
	defer sh.s.mu.Unlock()

	shift.Version = 1
	sh.s.shifts[shift.ID] = shift
	return &shift, nil
}

func (sh shiftStore) CreateBatch(_ context.Context, shifts []models.Shift) ([]models.Shift, error) {
	sh.s.mu.Lock()
	defer sh.s.mu.Unlock()

	created := make([]models.Shift, 0, len(shifts))
	for _, shift := range shifts {
		shift.Version = 1
		sh.s.shifts[shift.ID] = shift
		created = append(created, shift)
	}
	return created, nil
}

func (sh shiftStore) Update(_ context.Context, shift models.Shift) (*models.Shift, error) {
	sh.s.mu.Lock()
	defer sh.s.mu.Unlock()

	current, ok := sh.s.shifts[shift.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if current.Version != shift.Version {
		return nil, repository.ErrStaleWrite
	}

	shift.CreatedAt = current.CreatedAt
	shift.Version++
	sh.s.shifts[shift.ID] = shift
	return &shift, nil
}

func (sh shiftStore) Delete(_ context.Context, id string) error {
	sh.s.mu.Lock()
	defer sh.s.mu.Unlock()

	if _, ok := sh.s.shifts[id]; !ok {
		return repository.ErrNotFound
	}
	sh.s.deleteShiftLocked(id)
	return nil
}

// deleteShiftLocked removes a shift with its swaps and time-off requests, and
// detaches check-ins. Callers hold the write lock.
func (s *Store) deleteShiftLocked(id string) {
	delete(s.shifts, id)
	for swapID, swap := range s.swaps {
		if swap.OriginalShiftID == id {
			delete(s.swaps, swapID)
		} else if swap.TargetShiftID != nil && *swap.TargetShiftID == id {
			swap.TargetShiftID = nil
			s.swaps[swapID] = swap
		}
	}
	for requestID, request := range s.timeOff {
		if request.ShiftID == id {
			delete(s.timeOff, requestID)
		}
	}
	for checkInID, checkIn := range s.checkIns {
		if checkIn.ShiftID != nil && *checkIn.ShiftID == id {
			checkIn.ShiftID = nil
			s.checkIns[checkInID] = checkIn
		}
	}
}

type checkInStore struct{ s *Store }

func (c checkInStore) GetByID(_ context.Context, id string) (*models.CheckIn, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	checkIn, ok := c.s.checkIns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &checkIn, nil
}

func (c checkInStore) GetOpenByUser(_ context.Context, userID string) (*models.CheckIn, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	if open, ok := c.s.openCheckInLocked(userID); ok {
		return &open, nil
	}
	return nil, repository.ErrNotFound
}

func (s *Store) openCheckInLocked(userID string) (models.CheckIn, bool) {
	for _, checkIn := range s.checkIns {
		if checkIn.UserID == userID && checkIn.IsOpen() {
			return checkIn, true
		}
	}
	return models.CheckIn{}, false
}

func (c checkInStore) List(_ context.Context, filter models.CheckInFilter) ([]models.CheckIn, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	checkIns := []models.CheckIn{}
	for _, checkIn := range c.s.checkIns {
		switch {
		case filter.UserID != "" && checkIn.UserID != filter.UserID:
		case filter.LocationID != "" && checkIn.LocationID != filter.LocationID:
		case filter.ShiftID != "" && (checkIn.ShiftID == nil || *checkIn.ShiftID != filter.ShiftID):
		case filter.StartDate != nil && checkIn.CheckInTime.Before(*filter.StartDate):
		case filter.EndDate != nil && checkIn.CheckInTime.After(*filter.EndDate):
		case !filter.IncludeActive && checkIn.IsOpen():
		default:
			checkIns = append(checkIns, checkIn)
		}
	}

	sort.Slice(checkIns, func(i, j int) bool { return checkIns[i].CheckInTime.After(checkIns[j].CheckInTime) })
	return checkIns, nil
}

func (c checkInStore) Create(_ context.Context, checkIn models.CheckIn) (*models.CheckIn, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, open := c.s.openCheckInLocked(checkIn.UserID); open {
		return nil, repository.ErrOpenCheckIn
	}
	checkIn.Version = 1
	c.s.checkIns[checkIn.ID] = checkIn
	return &checkIn, nil
}

func (c checkInStore) Update(_ context.Context, checkIn models.CheckIn) (*models.CheckIn, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	current, ok := c.s.checkIns[checkIn.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if current.Version != checkIn.Version {
		return nil, repository.ErrStaleWrite
	}

	checkIn.CreatedAt = current.CreatedAt
	checkIn.Version++
	c.s.checkIns[checkIn.ID] = checkIn
	return &checkIn, nil
}

type swapStore struct{ s *Store }

func (sw swapStore) GetByID(_ context.Context, id string) (*models.ShiftSwap, error) {
	sw.s.mu.RLock()
	defer sw.s.mu.RUnlock()

	swap, ok := sw.s.swaps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &swap, nil
}

func (sw swapStore) List(_ context.Context, filter models.SwapFilter) ([]models.ShiftSwap, error) {
	sw.s.mu.RLock()
	defer sw.s.mu.RUnlock()

	swaps := []models.ShiftSwap{}
	for _, swap := range sw.s.swaps {
		involved := swap.RequesterID == filter.UserID || (swap.TargetUserID != nil && *swap.TargetUserID == filter.UserID)
		if filter.UserID != "" && !involved {
			continue
		}
		if filter.Status != nil && swap.Status != *filter.Status {
			continue
		}
		swaps = append(swaps, swap)
	}

	sort.Slice(swaps, func(i, j int) bool { return swaps[i].CreatedAt.After(swaps[j].CreatedAt) })
	return swaps, nil
}

func (sw swapStore) Create(_ context.Context, swap models.ShiftSwap) (*models.ShiftSwap, error) {
	sw.s.mu.Lock()
	defer sw.s.mu.Unlock()

	swap.Version = 1
	sw.s.swaps[swap.ID] = swap
	return &swap, nil
}

func (sw swapStore) Update(_ context.Context, swap models.ShiftSwap) (*models.ShiftSwap, error) {
	sw.s.mu.Lock()
	defer sw.s.mu.Unlock()

	current, ok := sw.s.swaps[swap.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if current.Version != swap.Version {
		return nil, repository.ErrStaleWrite
	}

	swap.CreatedAt = current.CreatedAt
	swap.Version++
	sw.s.swaps[swap.ID] = swap
	return &swap, nil
}

type timeOffStore struct{ s *Store }

func (t timeOffStore) GetByID(_ context.Context, id string) (*models.TimeOffRequest, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	request, ok := t.s.timeOff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &request, nil
}

func (t timeOffStore) List(_ context.Context, filter models.TimeOffFilter) ([]models.TimeOffRequest, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	requests := []models.TimeOffRequest{}
	for _, request := range t.s.timeOff {
		if filter.UserID != "" && request.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && request.Status != *filter.Status {
			continue
		}
		requests = append(requests, request)
	}

	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
	return requests, nil
}

func (t timeOffStore) Create(_ context.Context, request models.TimeOffRequest) (*models.TimeOffRequest, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	request.Version = 1
	t.s.timeOff[request.ID] = request
	return &request, nil
}

func (t timeOffStore) Update(_ context.Context, request models.TimeOffRequest) (*models.TimeOffRequest, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	current, ok := t.s.timeOff[request.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if current.Version != request.Version {
		return nil, repository.ErrStaleWrite
	}

	request.CreatedAt = current.CreatedAt
	request.Version++
	t.s.timeOff[request.ID] = request
	return &request, nil
}

type settingsStore struct{ s *Store }

func (st settingsStore) Get(_ context.Context) (*models.Settings, error) {
	st.s.mu.RLock()
	defer st.s.mu.RUnlock()

	if st.s.settings == nil {
		settings := models.DefaultSettings()
		return &settings, nil
	}
	settings := *st.s.settings
	return &settings, nil
}

func (st settingsStore) Update(_ context.Context, settings models.Settings) (*models.Settings, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	currentVersion := 0
	if st.s.settings != nil {
		currentVersion = st.s.settings.Version
	}
	if settings.Version != currentVersion {
		return nil, repository.ErrStaleWrite
	}

	settings.Version++
	st.s.settings = &settings
	saved := settings
	return &saved, nil
}

func containsAny(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
