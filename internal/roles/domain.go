package roles

import (
	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

// Role bundles permissions that can be assigned to users.
type Role struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Active      bool              `json:"active"`
	Permissions []rbac.Permission `json:"permissions"`
	shared.AuditFields
}

// Input is the writable part of a role.
type Input struct {
	Name          string      `json:"name" validate:"required,max=50"`
	Description   string      `json:"description" validate:"max=150"`
	Active        *bool       `json:"active" validate:"required"`
	PermissionIDs []uuid.UUID `json:"permissions"`
}

func inputFrom(r Role) Input {
	active := r.Active
	ids := make([]uuid.UUID, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		ids = append(ids, p.ID)
	}
	return Input{Name: r.Name, Description: r.Description, Active: &active, PermissionIDs: ids}
}

// RoleListFilters narrows role listings.
type RoleListFilters struct {
	Active *bool
}

// Assignment binds a user to a role. Only active assignments grant permissions.
type Assignment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user"`
	UserEmail string    `json:"user_email"`
	RoleID    uuid.UUID `json:"role"`
	RoleName  string    `json:"role_name"`
	Active    bool      `json:"active"`
	shared.AuditFields
}

// AssignmentInput is the writable part of an assignment.
type AssignmentInput struct {
	UserID uuid.UUID `json:"user" validate:"required"`
	RoleID uuid.UUID `json:"role" validate:"required"`
	Active *bool     `json:"active"`
}

func assignmentInputFrom(a Assignment) AssignmentInput {
	active := a.Active
	return AssignmentInput{UserID: a.UserID, RoleID: a.RoleID, Active: &active}
}

// AssignmentFilters narrows assignment listings.
type AssignmentFilters struct {
	UserID *uuid.UUID
	RoleID *uuid.UUID
	Active *bool
}
