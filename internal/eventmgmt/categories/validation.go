package categories

import (
	"strings"

	"github.com/eventhub/eventhub/internal/shared"
)

func (s *Service) validate(in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return shared.FieldError("name", "This field is required.")
	}
	return nil
}
