package categories

import (
	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// Category groups events (conference, workshop, ...).
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	shared.AuditFields
}

// Input is the writable part of a category.
type Input struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func inputFrom(c Category) Input {
	return Input{Name: c.Name, Description: c.Description}
}
