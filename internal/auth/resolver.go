package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// UserLookup loads non-deleted users by id.
type UserLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// Resolver maps a token subject to the stored user.
type Resolver struct {
	users UserLookup
}

// NewResolver constructs a Resolver.
func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the non-deleted user with id, or shared.ErrResourceNotFound.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrResourceNotFound) {
			return nil, shared.ErrResourceNotFound
		}
		return nil, fmt.Errorf("auth: resolve principal: %w", err)
	}
	if user == nil || user.DeletedAt != nil {
		return nil, shared.ErrResourceNotFound
	}
	return user, nil
}
