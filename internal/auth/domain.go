package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// LastLoginLayout is the textual form of the last_login claim.
const LastLoginLayout = "2006/01/02 - 15:04:05"

// User represents an account that can authenticate.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	IsActive     bool       `json:"is_active"`
	IsSuperuser  bool       `json:"is_superuser"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"last_login"`
	shared.AuditFields
}

// Principal projects the user onto the request-scoped identity.
func (u *User) Principal() *shared.Principal {
	return &shared.Principal{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}

// Registration is the input for self sign-up.
type Registration struct {
	Email    string
	Username string
	Password string
	Phone    string
}
