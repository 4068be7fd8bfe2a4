package roles

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/platform/db"
	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, COALESCE(description, ''), active, created_at, created_by, modified_at, modified_by`

var roleOrdering = map[string]string{"name": "name", "created_at": "created_at"}

func scanRole(row pgx.Row) (Role, error) {
	var r Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Active, &r.CreatedAt, &r.CreatedBy, &r.ModifiedAt, &r.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return Role{}, shared.ErrResourceNotFound
		}
		return Role{}, err
	}
	r.Permissions = []rbac.Permission{}
	return r, nil
}

// ListRoles returns a page of roles with their permissions.
func (r *Repository) ListRoles(ctx context.Context, filters RoleListFilters, page query.ListFilters) ([]Role, int, error) {
	b := query.NewBuilder("deleted_at IS NULL")
	if filters.Active != nil {
		b.Where("active = ?", *filters.Active)
	}
	if page.Search != "" {
		b.Where("(name ILIKE ? ESCAPE '\\' OR description ILIKE ? ESCAPE '\\')", query.Like(page.Search), query.Like(page.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("roles: count: %w", err)
	}
	where := b.Clause()
	limit, args := b.Page(page)
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles`+where+
		` ORDER BY `+query.OrderBy(page.Ordering, roleOrdering, "name ASC")+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("roles: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Role, error) { return scanRole(row) })
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachPermissions(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetRole loads one live role.
func (r *Repository) GetRole(ctx context.Context, id uuid.UUID) (Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		return Role{}, err
	}
	roles := []Role{role}
	if err := r.attachPermissions(ctx, roles); err != nil {
		return Role{}, err
	}
	return roles[0], nil
}

func (r *Repository) attachPermissions(ctx context.Context, roles []Role) error {
	if len(roles) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(roles))
	index := make(map[uuid.UUID]int, len(roles))
	for i, role := range roles {
		ids[i] = role.ID
		index[role.ID] = i
	}
	rows, err := r.pool.Query(ctx, `SELECT rp.role_id, p.id, p.codename, p.name, p.domain
		FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ANY($1::uuid[]) ORDER BY p.domain, p.codename`, ids)
	if err != nil {
		return fmt.Errorf("roles: load permissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var roleID uuid.UUID
		var p rbac.Permission
		if err := rows.Scan(&roleID, &p.ID, &p.Codename, &p.Name, &p.Domain); err != nil {
			return err
		}
		i := index[roleID]
		roles[i].Permissions = append(roles[i].Permissions, p)
	}
	return rows.Err()
}

// RoleNames lists the names of live roles other than excluding.
func (r *Repository) RoleNames(ctx context.Context, excluding uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM roles WHERE deleted_at IS NULL AND id <> $1`, excluding)
	if err != nil {
		return nil, fmt.Errorf("roles: names: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CreateRole inserts a new role and its permission set.
func (r *Repository) CreateRole(ctx context.Context, in Input, actor *uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO roles (id, name, description, active, created_by, modified_by)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5, $5)`, id, in.Name, in.Description, *in.Active, actor)
		if err != nil {
			return mapRoleWriteErr(err)
		}
		return replacePermissions(ctx, tx, id, in.PermissionIDs)
	})
	return id, err
}

// UpdateRole rewrites a role and replaces its permission set.
func (r *Repository) UpdateRole(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE roles SET name = $2, description = NULLIF($3, ''), active = $4,
			modified_at = now(), modified_by = $5 WHERE id = $1 AND deleted_at IS NULL`,
			id, in.Name, in.Description, *in.Active, actor)
		if err != nil {
			return mapRoleWriteErr(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		return replacePermissions(ctx, tx, id, in.PermissionIDs)
	})
}

// ReplacePermissions swaps the permission set of a role.
func (r *Repository) ReplacePermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE roles SET modified_at = now(), modified_by = $2
			WHERE id = $1 AND deleted_at IS NULL`, id, actor)
		if err != nil {
			return fmt.Errorf("roles: touch role: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		return replacePermissions(ctx, tx, id, permissionIDs)
	})
}

func replacePermissions(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("roles: clear permissions: %w", err)
	}
	ids := dedupe(permissionIDs)
	if len(ids) == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id)
		SELECT $1, id FROM permissions WHERE id = ANY($2::uuid[])`, roleID, ids)
	if err != nil {
		return fmt.Errorf("roles: insert permissions: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return shared.FieldError("permissions", "Invalid pk - object does not exist.")
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SetActive flips the active flag of the given roles.
func (r *Repository) SetActive(ctx context.Context, ids []uuid.UUID, active bool, actor *uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET active = $2, modified_at = now(), modified_by = $3
		WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL`, ids, active, actor)
	if err != nil {
		return 0, fmt.Errorf("roles: set active: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RoleInUse reports whether an active assignment still references the role.
func (r *Repository) RoleInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var inUse bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_roles ur JOIN users u ON u.id = ur.user_id
		WHERE ur.role_id = $1 AND ur.active AND ur.deleted_at IS NULL AND u.deleted_at IS NULL)`, id).Scan(&inUse)
	if err != nil {
		return false, fmt.Errorf("roles: in use: %w", err)
	}
	return inUse, nil
}

// DeleteRole soft-deletes the role together with its remaining assignments.
func (r *Repository) DeleteRole(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE roles SET deleted_at = now(), deleted_by = $2
			WHERE id = $1 AND deleted_at IS NULL`, id, actor)
		if err != nil {
			return fmt.Errorf("roles: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE user_roles SET deleted_at = now(), deleted_by = $2
			WHERE role_id = $1 AND deleted_at IS NULL`, id, actor); err != nil {
			return fmt.Errorf("roles: cascade assignments: %w", err)
		}
		return nil
	})
}

func mapRoleWriteErr(err error) error {
	if db.IsUniqueViolation(err) {
		return shared.DuplicateError("name", nameTakenMessage)
	}
	return fmt.Errorf("roles: write: %w", err)
}

const selectAssignment = `SELECT ur.id, ur.user_id, u.email, ur.role_id, r.name, ur.active,
	ur.created_at, ur.created_by, ur.modified_at, ur.modified_by
	FROM user_roles ur
	JOIN users u ON u.id = ur.user_id
	JOIN roles r ON r.id = ur.role_id`

const assignmentJoins = ` FROM user_roles ur JOIN users u ON u.id = ur.user_id JOIN roles r ON r.id = ur.role_id`

var assignmentOrdering = map[string]string{"created_at": "ur.created_at", "user": "u.email", "role": "r.name"}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.UserID, &a.UserEmail, &a.RoleID, &a.RoleName, &a.Active,
		&a.CreatedAt, &a.CreatedBy, &a.ModifiedAt, &a.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return Assignment{}, shared.ErrResourceNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

// ListAssignments returns a page of live assignments.
func (r *Repository) ListAssignments(ctx context.Context, filters AssignmentFilters, page query.ListFilters) ([]Assignment, int, error) {
	b := query.NewBuilder("ur.deleted_at IS NULL")
	if filters.UserID != nil {
		b.Where("ur.user_id = ?", *filters.UserID)
	}
	if filters.RoleID != nil {
		b.Where("ur.role_id = ?", *filters.RoleID)
	}
	if filters.Active != nil {
		b.Where("ur.active = ?", *filters.Active)
	}
	if page.Search != "" {
		b.Where("(u.email ILIKE ? ESCAPE '\\' OR r.name ILIKE ? ESCAPE '\\')", query.Like(page.Search), query.Like(page.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+assignmentJoins+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("user roles: count: %w", err)
	}
	where := b.Clause()
	limit, args := b.Page(page)
	rows, err := r.pool.Query(ctx, selectAssignment+where+
		` ORDER BY `+query.OrderBy(page.Ordering, assignmentOrdering, "ur.created_at DESC")+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("user roles: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Assignment, error) { return scanAssignment(row) })
	return out, total, err
}

// GetAssignment loads one live assignment.
func (r *Repository) GetAssignment(ctx context.Context, id uuid.UUID) (Assignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, selectAssignment+` WHERE ur.id = $1 AND ur.deleted_at IS NULL`, id))
}

// References reports whether the user and the role exist and are not deleted.
func (r *Repository) References(ctx context.Context, userID, roleID uuid.UUID) (userOK, roleOK bool, err error) {
	err = r.pool.QueryRow(ctx, `SELECT
		EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL),
		EXISTS (SELECT 1 FROM roles WHERE id = $2 AND deleted_at IS NULL)`, userID, roleID).Scan(&userOK, &roleOK)
	if err != nil {
		return false, false, fmt.Errorf("user roles: check references: %w", err)
	}
	return userOK, roleOK, nil
}

// AssignmentExists reports whether another live assignment binds user to role.
func (r *Repository) AssignmentExists(ctx context.Context, userID, roleID, excluding uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_roles
		WHERE user_id = $1 AND role_id = $2 AND id <> $3 AND deleted_at IS NULL)`, userID, roleID, excluding).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user roles: check duplicate: %w", err)
	}
	return exists, nil
}

// CreateAssignment inserts a new assignment.
func (r *Repository) CreateAssignment(ctx context.Context, in AssignmentInput, actor *uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `INSERT INTO user_roles (id, user_id, role_id, active, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $5)`, id, in.UserID, in.RoleID, *in.Active, actor)
	if err != nil {
		return uuid.Nil, mapAssignmentWriteErr(err)
	}
	return id, nil
}

// UpdateAssignment rewrites an assignment.
func (r *Repository) UpdateAssignment(ctx context.Context, id uuid.UUID, in AssignmentInput, actor *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_roles SET user_id = $2, role_id = $3, active = $4,
		modified_at = now(), modified_by = $5 WHERE id = $1 AND deleted_at IS NULL`,
		id, in.UserID, in.RoleID, *in.Active, actor)
	if err != nil {
		return mapAssignmentWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrResourceNotFound
	}
	return nil
}

// ToggleAssignment flips the active flag and returns the new value.
func (r *Repository) ToggleAssignment(ctx context.Context, id uuid.UUID, actor *uuid.UUID) (bool, error) {
	var active bool
	err := r.pool.QueryRow(ctx, `UPDATE user_roles SET active = NOT active, modified_at = now(), modified_by = $2
		WHERE id = $1 AND deleted_at IS NULL RETURNING active`, id, actor).Scan(&active)
	if err != nil {
		if db.IsNoRows(err) {
			return false, shared.ErrResourceNotFound
		}
		return false, fmt.Errorf("user roles: toggle: %w", err)
	}
	return active, nil
}

// DeleteAssignment soft-deletes an assignment.
func (r *Repository) DeleteAssignment(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_roles SET deleted_at = now(), deleted_by = $2
		WHERE id = $1 AND deleted_at IS NULL`, id, actor)
	if err != nil {
		return fmt.Errorf("user roles: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrResourceNotFound
	}
	return nil
}

func mapAssignmentWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return shared.FieldError("role", duplicateAssignmentMessage)
	case db.IsForeignKeyViolation(err):
		return shared.FieldError("user", "Invalid pk - object does not exist.")
	}
	return fmt.Errorf("user roles: write: %w", err)
}
