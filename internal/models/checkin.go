package models

import (
	"time"
)

// CheckIn is one clocked work period. It is open until CheckOutTime is set.
type CheckIn struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"userId"`
	ShiftID         *string    `db:"shift_id" json:"shiftId,omitempty"`
	LocationID      string     `db:"location_id" json:"locationId"`
	CheckInTime     time.Time  `db:"check_in_time" json:"checkInTime"`
	CheckOutTime    *time.Time `db:"check_out_time" json:"checkOutTime,omitempty"`
	Latitude        *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude       *float64   `db:"longitude" json:"longitude,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	BreakDuration   int        `db:"break_duration" json:"breakDuration"`     // minutes
	OvertimeMinutes int        `db:"overtime_minutes" json:"overtimeMinutes"` // minutes
	Version         int        `db:"version" json:"version"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	User     *User     `db:"-" json:"user,omitempty"`
	Location *Location `db:"-" json:"location,omitempty"`
}

// IsOpen reports whether the check-in has not been closed yet
func (c CheckIn) IsOpen() bool {
	return c.CheckOutTime == nil
}

// HoursWorked returns the elapsed hours between check-in and check-out.
// Open check-ins report zero.
func (c CheckIn) HoursWorked() float64 {
	if c.CheckOutTime == nil {
		return 0
	}
	return c.CheckOutTime.Sub(c.CheckInTime).Hours()
}

// CheckInRequest is used when a user clocks in
type CheckInRequest struct {
	LocationID string   `json:"locationId" validate:"required"`
	ShiftID    *string  `json:"shiftId" validate:"omitempty,min=1"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude,required_with=Longitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude,required_with=Latitude"`
	Notes      *string  `json:"notes" validate:"omitempty,max=500"`
}

// CheckOutRequest is used when a user clocks out
type CheckOutRequest struct {
	Notes         *string `json:"notes" validate:"omitempty,max=500"`
	BreakDuration *int    `json:"breakDuration" validate:"omitempty,gte=0,lte=720"`
}

// CheckInFilter narrows check-in listings
type CheckInFilter struct {
	UserID        string
	LocationID    string
	ShiftID       string
	StartDate     *time.Time
	EndDate       *time.Time
	IncludeActive bool
}
