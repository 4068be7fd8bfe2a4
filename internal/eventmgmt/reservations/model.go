package reservations

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// Status is the lifecycle state of a reservation.
type Status string

// Reservation states.
const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
)

// Reservation binds an attendee to an event.
type Reservation struct {
	ID              uuid.UUID `json:"id"`
	EventID         uuid.UUID `json:"event"`
	EventName       string    `json:"event_name"`
	AttendeeID      uuid.UUID `json:"attendee"`
	AttendeeEmail   string    `json:"attendee_email"`
	ReservationDate time.Time `json:"reservation_date"`
	Status          Status    `json:"status"`
	shared.AuditFields
}

// Input is the writable part of a reservation.
type Input struct {
	EventID    uuid.UUID `json:"event" validate:"required"`
	AttendeeID uuid.UUID `json:"attendee" validate:"required"`
	Status     Status    `json:"status" validate:"omitempty,oneof=Pending Confirmed Cancelled"`
}

func inputFrom(r Reservation) Input {
	return Input{EventID: r.EventID, AttendeeID: r.AttendeeID, Status: r.Status}
}

// EventSlot is the capacity view of an event, read under lock.
type EventSlot struct {
	Date       time.Time
	TotalSlots int
}

// Filters narrows reservation listings.
type Filters struct {
	EventID *uuid.UUID
	Status  Status
}
