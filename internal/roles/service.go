package roles

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/shared"
)

const (
	nameTakenMessage           = "The role name already exists. Please choose a different name."
	shortDescriptionMessage    = "The description must be at least 10 characters long."
	duplicateAssignmentMessage = "This user is already assigned the selected role."
	minDescriptionLength       = 10
)

// RepositoryPort defines data access methods for roles and assignments.
type RepositoryPort interface {
	ListRoles(ctx context.Context, filters RoleListFilters, page query.ListFilters) ([]Role, int, error)
	GetRole(ctx context.Context, id uuid.UUID) (Role, error)
	RoleNames(ctx context.Context, excluding uuid.UUID) ([]string, error)
	CreateRole(ctx context.Context, in Input, actor *uuid.UUID) (uuid.UUID, error)
	UpdateRole(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) error
	ReplacePermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID, actor *uuid.UUID) error
	SetActive(ctx context.Context, ids []uuid.UUID, active bool, actor *uuid.UUID) (int64, error)
	RoleInUse(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteRole(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error

	ListAssignments(ctx context.Context, filters AssignmentFilters, page query.ListFilters) ([]Assignment, int, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error)
	References(ctx context.Context, userID, roleID uuid.UUID) (userOK, roleOK bool, err error)
	AssignmentExists(ctx context.Context, userID, roleID, excluding uuid.UUID) (bool, error)
	CreateAssignment(ctx context.Context, in AssignmentInput, actor *uuid.UUID) (uuid.UUID, error)
	UpdateAssignment(ctx context.Context, id uuid.UUID, in AssignmentInput, actor *uuid.UUID) error
	ToggleAssignment(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (bool, error)
	DeleteAssignment(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
}

// Service handles role business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListRoles returns a page of roles.
func (s *Service) ListRoles(ctx context.Context, filters RoleListFilters, page query.ListFilters) (shared.Page[Role], error) {
	items, total, err := s.repo.ListRoles(ctx, filters, page)
	if err != nil {
		return shared.Page[Role]{}, err
	}
	return shared.NewPage(items, page.Page, page.Size, total), nil
}

// GetRole returns one role.
func (s *Service) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates and stores a new role.
func (s *Service) CreateRole(ctx context.Context, in Input) (Role, error) {
	if err := s.validateRole(ctx, uuid.Nil, &in); err != nil {
		return Role{}, err
	}
	id, err := s.repo.CreateRole(ctx, in, shared.ActorID(ctx))
	if err != nil {
		return Role{}, err
	}
	return s.repo.GetRole(ctx, id)
}

// UpdateRole validates and rewrites a role.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, in Input) (Role, error) {
	if err := s.validateRole(ctx, id, &in); err != nil {
		return Role{}, err
	}
	if err := s.repo.UpdateRole(ctx, id, in, shared.ActorID(ctx)); err != nil {
		return Role{}, err
	}
	return s.repo.GetRole(ctx, id)
}

// SetPermissions replaces the role's permission set.
func (s *Service) SetPermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID) (Role, error) {
	if err := s.repo.ReplacePermissions(ctx, id, permissionIDs, shared.ActorID(ctx)); err != nil {
		return Role{}, err
	}
	return s.repo.GetRole(ctx, id)
}

// SetActive activates or deactivates roles in bulk.
func (s *Service) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int64, error) {
	if len(ids) == 0 {
		return 0, shared.FieldError("ids", "This field is required.")
	}
	return s.repo.SetActive(ctx, ids, active, shared.ActorID(ctx))
}

// DeleteRole refuses to delete a role still held through an active assignment.
func (s *Service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetRole(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.RoleInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return shared.ErrRoleInUse
	}
	return s.repo.DeleteRole(ctx, id, shared.ActorID(ctx))
}

func (s *Service) validateRole(ctx context.Context, id uuid.UUID, in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	verr := shared.NewValidationError()
	if in.Name == "" {
		verr.Add("name", "This field is required.")
	}
	if in.Description != "" && utf8.RuneCountInString(in.Description) < minDescriptionLength {
		verr.Add("description", shortDescriptionMessage)
	}
	if in.Active == nil {
		verr.Add("active", "This field is required.")
	}
	if !verr.Empty() {
		return verr
	}

	names, err := s.repo.RoleNames(ctx, id)
	if err != nil {
		return err
	}
	// Casers are stateful, so each validation gets its own.
	fold := cases.Fold()
	folded := fold.String(in.Name)
	for _, name := range names {
		if fold.String(name) == folded {
			return shared.DuplicateError("name", nameTakenMessage)
		}
	}
	return nil
}

// ListAssignments returns a page of user-role assignments.
func (s *Service) ListAssignments(ctx context.Context, filters AssignmentFilters, page query.ListFilters) (shared.Page[Assignment], error) {
	items, total, err := s.repo.ListAssignments(ctx, filters, page)
	if err != nil {
		return shared.Page[Assignment]{}, err
	}
	return shared.NewPage(items, page.Page, page.Size, total), nil
}

// GetAssignment returns one assignment.
func (s *Service) GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	return s.repo.GetAssignment(ctx, id)
}

// CreateAssignment binds a user to a role. Active defaults to true.
func (s *Service) CreateAssignment(ctx context.Context, in AssignmentInput) (Assignment, error) {
	if in.Active == nil {
		active := true
		in.Active = &active
	}
	if err := s.validateAssignment(ctx, uuid.Nil, in); err != nil {
		return Assignment{}, err
	}
	id, err := s.repo.CreateAssignment(ctx, in, shared.ActorID(ctx))
	if err != nil {
		return Assignment{}, err
	}
	return s.repo.GetAssignment(ctx, id)
}

// UpdateAssignment rewrites an assignment, keeping its active flag when omitted.
func (s *Service) UpdateAssignment(ctx context.Context, id uuid.UUID, in AssignmentInput) (Assignment, error) {
	current, err := s.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if in.Active == nil {
		active := current.Active
		in.Active = &active
	}
	if err := s.validateAssignment(ctx, id, in); err != nil {
		return Assignment{}, err
	}
	if err := s.repo.UpdateAssignment(ctx, id, in, shared.ActorID(ctx)); err != nil {
		return Assignment{}, err
	}
	return s.repo.GetAssignment(ctx, id)
}

// ToggleAssignment flips the assignment between active and inactive.
func (s *Service) ToggleAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	if _, err := s.repo.ToggleAssignment(ctx, id, shared.ActorID(ctx)); err != nil {
		return Assignment{}, err
	}
	return s.repo.GetAssignment(ctx, id)
}

// DeleteAssignment removes an assignment.
func (s *Service) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAssignment(ctx, id, shared.ActorID(ctx))
}

// validateAssignment rejects unknown references and duplicate user/role pairs.
// Both references are required, so the duplicate check always has a pair to test.
func (s *Service) validateAssignment(ctx context.Context, id uuid.UUID, in AssignmentInput) error {
	verr := shared.NewValidationError()
	if in.UserID == uuid.Nil {
		verr.Add("user", "This field is required.")
	}
	if in.RoleID == uuid.Nil {
		verr.Add("role", "This field is required.")
	}
	if !verr.Empty() {
		return verr
	}

	userOK, roleOK, err := s.repo.References(ctx, in.UserID, in.RoleID)
	if err != nil {
		return err
	}
	if !userOK {
		verr.Add("user", "Invalid pk - object does not exist.")
	}
	if !roleOK {
		verr.Add("role", "Invalid pk - object does not exist.")
	}
	if !verr.Empty() {
		return verr
	}

	dup, err := s.repo.AssignmentExists(ctx, in.UserID, in.RoleID, id)
	if err != nil {
		return err
	}
	if dup {
		return shared.FieldError("role", duplicateAssignmentMessage)
	}
	return nil
}
