package models

import (
	"time"
)

// RequestStatus is shared by swap and time-off requests
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Terminal reports whether the request has left pending
func (s RequestStatus) Terminal() bool {
	return s != RequestStatusPending
}

// Review holds the reviewer stamp. All fields are set together when a request leaves pending.
type Review struct {
	ReviewedBy  *string    `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNotes *string    `db:"review_notes" json:"reviewNotes,omitempty"`

	Reviewer *User `db:"-" json:"reviewer,omitempty"`
}

// ShiftSwap is a request to trade a shift, either with a named colleague (direct)
// or with anyone eligible (open).
type ShiftSwap struct {
	ID              string        `db:"id" json:"id"`
	RequesterID     string        `db:"requester_id" json:"requesterId"`
	OriginalShiftID string        `db:"original_shift_id" json:"originalShiftId"`
	TargetUserID    *string       `db:"target_user_id" json:"targetUserId,omitempty"`
	TargetShiftID   *string       `db:"target_shift_id" json:"targetShiftId,omitempty"`
	Reason          *string       `db:"reason" json:"reason,omitempty"`
	Status          RequestStatus `db:"status" json:"status"`
	Deadline        *time.Time    `db:"deadline" json:"deadline,omitempty"`
	Review
	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the database
	Requester     *User  `db:"-" json:"requester,omitempty"`
	OriginalShift *Shift `db:"-" json:"originalShift,omitempty"`
	TargetUser    *User  `db:"-" json:"targetUser,omitempty"`
	TargetShift   *Shift `db:"-" json:"targetShift,omitempty"`
}

// IsOpen reports whether the swap is offered to anyone rather than a named colleague
func (s ShiftSwap) IsOpen() bool {
	return s.TargetUserID == nil && s.TargetShiftID == nil
}

// SwapRequest is used when an employee asks to trade a shift
type SwapRequest struct {
	OriginalShiftID string     `json:"originalShiftId" validate:"required"`
	TargetUserID    *string    `json:"targetUserId" validate:"omitempty,min=1"`
	TargetShiftID   *string    `json:"targetShiftId" validate:"omitempty,min=1"`
	Reason          *string    `json:"reason" validate:"omitempty,max=500"`
	Deadline        *time.Time `json:"deadline"`
}

// ReviewRequest approves or rejects a pending swap or time-off request
type ReviewRequest struct {
	Approved bool    `json:"approved"`
	Notes    *string `json:"notes" validate:"omitempty,max=500"`
}

// SwapFilter narrows swap listings
type SwapFilter struct {
	UserID string // requester or target
	Status *RequestStatus
}
