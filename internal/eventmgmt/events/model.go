package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// Ref is the compact {id, name} form of a related record.
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Event is a scheduled conference or workshop. AvailableSlots counts the
// slots not yet taken by confirmed reservations.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Date           time.Time `json:"date"`
	Location       string    `json:"location"`
	IsFeatured     bool      `json:"is_featured"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
	Category       Ref       `json:"category"`
	Speakers       []Ref     `json:"speakers"`
	shared.AuditFields
}

// Input is the writable part of an event.
type Input struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Description string      `json:"description"`
	Date        *time.Time  `json:"date" validate:"required"`
	Location    string      `json:"location" validate:"required,max=200"`
	CategoryID  uuid.UUID   `json:"category" validate:"required"`
	IsFeatured  bool        `json:"is_featured"`
	TotalSlots  int         `json:"total_slots" validate:"min=0"`
	SpeakerIDs  []uuid.UUID `json:"speakers"`
}

func inputFrom(e Event) Input {
	date := e.Date
	ids := make([]uuid.UUID, 0, len(e.Speakers))
	for _, s := range e.Speakers {
		ids = append(ids, s.ID)
	}
	return Input{
		Name:        e.Name,
		Description: e.Description,
		Date:        &date,
		Location:    e.Location,
		CategoryID:  e.Category.ID,
		IsFeatured:  e.IsFeatured,
		TotalSlots:  e.TotalSlots,
		SpeakerIDs:  ids,
	}
}

// Filters narrows event listings.
type Filters struct {
	Search   string
	Category string
	Date     *time.Time
	Ordering string
}
