package attendees

import (
	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// Attendee is the event-facing profile of a user.
type Attendee struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Phone    string    `json:"phone"`
	shared.AuditFields
}

// Input is the writable part of an attendee.
type Input struct {
	UserID uuid.UUID `json:"user" validate:"required"`
	Phone  string    `json:"phone" validate:"max=15"`
}

func inputFrom(a Attendee) Input {
	return Input{UserID: a.UserID, Phone: a.Phone}
}
