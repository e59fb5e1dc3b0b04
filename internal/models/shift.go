package models

import (
	"regexp"
	"time"
)

// ShiftStatus represents the status of a shift
type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "scheduled"
	ShiftStatusPending   ShiftStatus = "pending"
	ShiftStatusCompleted ShiftStatus = "completed"
	ShiftStatusCancelled ShiftStatus = "cancelled"
	ShiftStatusNoShow    ShiftStatus = "no_show"
)

// shiftTransitions lists the statuses reachable from each non-terminal status.
var shiftTransitions = map[ShiftStatus][]ShiftStatus{
	ShiftStatusPending:   {ShiftStatusScheduled, ShiftStatusCancelled},
	ShiftStatusScheduled: {ShiftStatusCancelled, ShiftStatusCompleted, ShiftStatusNoShow},
}

// Valid reports whether s is a known shift status
func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftStatusScheduled, ShiftStatusPending, ShiftStatusCompleted, ShiftStatusCancelled, ShiftStatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s ShiftStatus) Terminal() bool {
	return len(shiftTransitions[s]) == 0
}

// CanTransitionTo reports whether the shift state machine allows s -> next
func (s ShiftStatus) CanTransitionTo(next ShiftStatus) bool {
	for _, allowed := range shiftTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Shift represents a scheduled work period for one user at one location
type Shift struct {
	ID         string      `db:"id" json:"id"`
	UserID     string      `db:"user_id" json:"userId"`
	LocationID string      `db:"location_id" json:"locationId"`
	Date       time.Time   `db:"date" json:"date"`
	StartTime  string      `db:"start_time" json:"startTime"` // HH:mm
	EndTime    string      `db:"end_time" json:"endTime"`     // HH:mm
	Role       string      `db:"role" json:"role"`
	Status     ShiftStatus `db:"status" json:"status"`
	Notes      *string     `db:"notes" json:"notes,omitempty"`
	Version    int         `db:"version" json:"version"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	User     *User     `db:"-" json:"user,omitempty"`
	Location *Location `db:"-" json:"location,omitempty"`
}

// EndsAt returns the instant the shift ends when its wall-clock times are read in loc
func (s Shift) EndsAt(loc *time.Location) time.Time {
	end, err := time.Parse(TimeOfDayLayout, s.EndTime)
	if err != nil {
		return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day()+1, 0, 0, 0, 0, loc)
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), end.Hour(), end.Minute(), 0, 0, loc)
}

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// MinuteOfDay parses a zero-padded HH:mm wall-clock time into minutes since midnight
func MinuteOfDay(value string) (int, bool) {
	if !timeOfDayPattern.MatchString(value) {
		return 0, false
	}
	return int(value[0]-'0')*600 + int(value[1]-'0')*60 + int(value[3]-'0')*10 + int(value[4]-'0'), true
}

// ValidWindow reports whether start and end are well-formed and start is before end
func ValidWindow(start, end string) bool {
	from, ok := MinuteOfDay(start)
	if !ok {
		return false
	}
	to, ok := MinuteOfDay(end)
	return ok && from < to
}

// ShiftRequest is used for shift creation
type ShiftRequest struct {
	UserID     string  `json:"userId" validate:"required"`
	LocationID string  `json:"locationId" validate:"required"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime  string  `json:"startTime" validate:"required,timeofday"`
	EndTime    string  `json:"endTime" validate:"required,timeofday"`
	Role       string  `json:"role" validate:"required,max=100"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

// RecurringShiftRequest expands into one shift per matching weekday
type RecurringShiftRequest struct {
	ShiftRequest
	DaysOfWeek []int  `json:"daysOfWeek" validate:"required,min=1,dive,min=0,max=6"` // 0 = Sunday
	EndDate    string `json:"recurringEndDate" validate:"omitempty,datetime=2006-01-02"`
	Interval   int    `json:"interval" validate:"omitempty,min=1,max=52"` // weeks between occurrences
}

// ShiftUpdateRequest is used for shift edits. Nil fields are left untouched.
type ShiftUpdateRequest struct {
	UserID     *string      `json:"userId" validate:"omitempty,min=1"`
	LocationID *string      `json:"locationId" validate:"omitempty,min=1"`
	Date       *string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime  *string      `json:"startTime" validate:"omitempty,timeofday"`
	EndTime    *string      `json:"endTime" validate:"omitempty,timeofday"`
	Role       *string      `json:"role" validate:"omitempty,min=1,max=100"`
	Status     *ShiftStatus `json:"status" validate:"omitempty,oneof=scheduled pending completed cancelled no_show"`
	Notes      *string      `json:"notes" validate:"omitempty,max=500"`
}

// ShiftFilter narrows shift listings
type ShiftFilter struct {
	UserID     string
	LocationID string
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *ShiftStatus
	Role       string
}
