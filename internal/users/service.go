package users

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventhub/eventhub/internal/auth"
	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filters Filters, page query.ListFilters) ([]User, int, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	EmailTaken(ctx context.Context, email string, excluding uuid.UUID) (bool, error)
	CreateUser(ctx context.Context, a Account, actor *uuid.UUID) (uuid.UUID, error)
	UpdateUser(ctx context.Context, id uuid.UUID, a Account, actor *uuid.UUID) error
	DeleteUser(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
	DirectPermissions(ctx context.Context, id uuid.UUID) ([]rbac.Permission, error)
	ReplacePermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID) error
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
	cost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// ListUsers returns a page of users.
func (s *Service) ListUsers(ctx context.Context, filters Filters, page query.ListFilters) (shared.Page[User], error) {
	items, total, err := s.repo.ListUsers(ctx, filters, page)
	if err != nil {
		return shared.Page[User]{}, err
	}
	return shared.NewPage(items, page.Page, page.Size, total), nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser stores a new account. A password is mandatory here.
func (s *Service) CreateUser(ctx context.Context, in Input) (User, error) {
	if in.Password == "" {
		return User{}, shared.FieldError("password", "This field is required.")
	}
	account, err := s.account(ctx, uuid.Nil, in)
	if err != nil {
		return User{}, err
	}
	id, err := s.repo.CreateUser(ctx, account, shared.ActorID(ctx))
	if err != nil {
		return User{}, err
	}
	return s.repo.GetUser(ctx, id)
}

// UpdateUser rewrites an account. The password is rehashed only when one is sent.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in Input) (User, error) {
	account, err := s.account(ctx, id, in)
	if err != nil {
		return User{}, err
	}
	if err := s.repo.UpdateUser(ctx, id, account, shared.ActorID(ctx)); err != nil {
		return User{}, err
	}
	return s.repo.GetUser(ctx, id)
}

// DeleteUser soft-deletes a user. Callers cannot delete their own account.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if actor := shared.ActorID(ctx); actor != nil && *actor == id {
		return shared.FieldError("id", "You cannot delete your own account.")
	}
	return s.repo.DeleteUser(ctx, id, shared.ActorID(ctx))
}

// Permissions lists the user's direct grants.
func (s *Service) Permissions(ctx context.Context, id uuid.UUID) ([]rbac.Permission, error) {
	if _, err := s.repo.GetUser(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.DirectPermissions(ctx, id)
}

// SetPermissions replaces the user's direct grants.
func (s *Service) SetPermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID) ([]rbac.Permission, error) {
	seen := make(map[uuid.UUID]struct{}, len(permissionIDs))
	ids := make([]uuid.UUID, 0, len(permissionIDs))
	for _, pid := range permissionIDs {
		if _, ok := seen[pid]; !ok {
			seen[pid] = struct{}{}
			ids = append(ids, pid)
		}
	}
	if err := s.repo.ReplacePermissions(ctx, id, ids); err != nil {
		return nil, err
	}
	return s.repo.DirectPermissions(ctx, id)
}

func (s *Service) account(ctx context.Context, id uuid.UUID, in Input) (Account, error) {
	a := Account{
		Email:       strings.TrimSpace(in.Email),
		Username:    strings.TrimSpace(in.Username),
		Status:      strings.TrimSpace(in.Status),
		IsActive:    true,
		IsSuperuser: in.IsSuperuser,
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if a.Status == "" {
		a.Status = auth.DefaultUserStatus
	}

	taken, err := s.repo.EmailTaken(ctx, a.Email, id)
	if err != nil {
		return Account{}, err
	}
	if taken {
		return Account{}, shared.ErrEmailExists
	}

	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return Account{}, fmt.Errorf("users: hash password: %w", err)
		}
		a.PasswordHash = string(hash)
	}
	return a, nil
}

// ParseFilters reads the is_active and status list parameters.
func ParseFilters(q url.Values) (Filters, error) {
	var f Filters
	if raw := strings.TrimSpace(q.Get("is_active")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Filters{}, shared.FieldError("is_active", "Must be a valid boolean.")
		}
		f.IsActive = &v
	}
	f.Status = strings.TrimSpace(q.Get("status"))
	return f, nil
}
