package roles

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// ParseRoleFilters reads the active list parameter.
func ParseRoleFilters(q url.Values) (RoleListFilters, error) {
	active, err := boolParam(q, "active")
	if err != nil {
		return RoleListFilters{}, err
	}
	return RoleListFilters{Active: active}, nil
}

// ParseAssignmentFilters reads the user, role and active list parameters.
func ParseAssignmentFilters(q url.Values) (AssignmentFilters, error) {
	var f AssignmentFilters
	var err error
	if f.UserID, err = uuidParam(q, "user"); err != nil {
		return AssignmentFilters{}, err
	}
	if f.RoleID, err = uuidParam(q, "role"); err != nil {
		return AssignmentFilters{}, err
	}
	if f.Active, err = boolParam(q, "active"); err != nil {
		return AssignmentFilters{}, err
	}
	return f, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, shared.FieldError(name, "Must be a valid boolean.")
	}
	return &v, nil
}

func uuidParam(q url.Values, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, shared.FieldError(name, shared.ErrInvalidID.Message)
	}
	return &id, nil
}
