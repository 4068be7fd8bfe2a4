package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditFields mirrors the audit columns every record carries.
type AuditFields struct {
	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  *uuid.UUID `json:"created_by,omitempty"`
	ModifiedAt time.Time  `json:"modified_at"`
	ModifiedBy *uuid.UUID `json:"modified_by,omitempty"`
	DeletedAt  *time.Time `json:"-"`
	DeletedBy  *uuid.UUID `json:"-"`
}

// ActorID returns the principal id stored in ctx, or nil for anonymous calls.
func ActorID(ctx context.Context) *uuid.UUID {
	p := PrincipalFromContext(ctx)
	if p == nil || p.ID == uuid.Nil {
		return nil
	}
	id := p.ID
	return &id
}
