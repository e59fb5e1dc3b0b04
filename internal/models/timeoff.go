package models

import (
	"time"
)

// TimeOffRequest asks to be excused from one shift
type TimeOffRequest struct {
	ID      string        `db:"id" json:"id"`
	UserID  string        `db:"user_id" json:"userId"`
	ShiftID string        `db:"shift_id" json:"shiftId"`
	Reason  *string       `db:"reason" json:"reason,omitempty"`
	Status  RequestStatus `db:"status" json:"status"`
	Review
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	User  *User  `db:"-" json:"user,omitempty"`
	Shift *Shift `db:"-" json:"shift,omitempty"`
}

type TimeOffInput struct {
	ShiftID string  `json:"shiftId" validate:"required"`
	Reason  *string `json:"reason" validate:"omitempty,max=500"`
}

// TimeOffFilter narrows time-off listings
type TimeOffFilter struct {
	UserID string
	Status *RequestStatus
}

// Availability is the answer to "can this user work on that date"
type Availability struct {
	UserID    string  `json:"userId"`
	Date      string  `json:"date"`
	Available bool    `json:"available"`
	Warning   *string `json:"warning,omitempty"`
}
