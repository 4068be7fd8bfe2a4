package speakers

import (
	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// Speaker is a lecturer who can be attached to events.
type Speaker struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	shared.AuditFields
}

// Input is the writable part of a speaker.
type Input struct {
	Name        string `json:"name" validate:"required,max=100"`
	Bio         string `json:"bio"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"max=15"`
}

func inputFrom(s Speaker) Input {
	return Input{Name: s.Name, Bio: s.Bio, Email: s.Email, PhoneNumber: s.PhoneNumber}
}
