package models

import (
	"time"
)

// EventType names a lifecycle event pushed to connected clients
type EventType string

const (
	EventShiftCreated     EventType = "shift.created"
	EventShiftUpdated     EventType = "shift.updated"
	EventShiftDeleted     EventType = "shift.deleted"
	EventSwapRequested    EventType = "swap.requested"
	EventSwapReviewed     EventType = "swap.reviewed"
	EventSwapCancelled    EventType = "swap.cancelled"
	EventTimeOffRequested EventType = "timeoff.requested"
	EventTimeOffReviewed  EventType = "timeoff.reviewed"
	EventCheckedIn        EventType = "checkin.created"
	EventCheckedOut       EventType = "checkin.closed"
	EventSettingsUpdated  EventType = "settings.updated"
)

// Event is delivered to Recipients and to every connected manager and admin.
// Broadcast events go to everyone.
type Event struct {
	Type       EventType   `json:"type"`
	Data       interface{} `json:"data"`
	Recipients []string    `json:"-"`
	Broadcast  bool        `json:"-"`
	At         time.Time   `json:"at"`
}
