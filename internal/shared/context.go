package shared

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated actor attached to a request by the gate.
type Principal struct {
	ID          uuid.UUID
	Email       string
	IsActive    bool
	IsSuperuser bool
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
