package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

// User represents a user account for management.
type User struct {
	ID          uuid.UUID         `json:"id"`
	Email       string            `json:"email"`
	Username    string            `json:"username"`
	IsActive    bool              `json:"is_active"`
	IsSuperuser bool              `json:"is_superuser"`
	Status      string            `json:"status"`
	LastLogin   *time.Time        `json:"last_login"`
	Permissions []rbac.Permission `json:"user_permissions"`
	shared.AuditFields
}

// Input is the writable part of a user. An empty password keeps the stored one.
type Input struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Username    string `json:"username" validate:"required,max=150"`
	Password    string `json:"password" validate:"omitempty,min=8"`
	Status      string `json:"status" validate:"max=50"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

func inputFrom(u User) Input {
	active := u.IsActive
	return Input{Email: u.Email, Username: u.Username, Status: u.Status, IsActive: &active, IsSuperuser: u.IsSuperuser}
}

// Account is what the repository writes.
type Account struct {
	Email        string
	Username     string
	PasswordHash string
	Status       string
	IsActive     bool
	IsSuperuser  bool
}

// Filters narrows user listings.
type Filters struct {
	IsActive *bool
	Status   string
}
