package users

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

const columns = `id, email, username, is_active, is_superuser, status, last_login,
	created_at, created_by, modified_at, modified_by`

var ordering = map[string]string{"email": "email", "username": "username", "created_at": "created_at", "last_login": "last_login"}

func scan(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.IsActive, &u.IsSuperuser, &u.Status, &u.LastLogin,
		&u.CreatedAt, &u.CreatedBy, &u.ModifiedAt, &u.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return User{}, shared.ErrResourceNotFound
		}
		return User{}, err
	}
	return u, nil
}

func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err) {
		return shared.ErrEmailExists
	}
	return fmt.Errorf("users: write: %w", err)
}

// ListUsers returns a page of users.
func (r *Repository) ListUsers(ctx context.Context, filters Filters, page query.ListFilters) ([]User, int, error) {
	b := query.NewBuilder("deleted_at IS NULL")
	if filters.IsActive != nil {
		b.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Status != "" {
		b.Where("status = ?", filters.Status)
	}
	if page.Search != "" {
		b.Where("(email ILIKE ? ESCAPE '\\' OR username ILIKE ? ESCAPE '\\')", query.Like(page.Search), query.Like(page.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}
	where := b.Clause()
	limit, args := b.Page(page)
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM users`+where+
		` ORDER BY `+query.OrderBy(page.Ordering, ordering, "email ASC")+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) { return scan(row) })
	return out, total, err
}

// GetUser loads a live user with its direct permissions.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	u, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		return User{}, err
	}
	u.Permissions, err = r.DirectPermissions(ctx, id)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// EmailTaken reports whether another live user already uses email.
func (r *Repository) EmailTaken(ctx context.Context, email string, excluding uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users
		WHERE lower(email) = lower($1) AND id <> $2 AND deleted_at IS NULL)`, email, excluding).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("users: check email: %w", err)
	}
	return taken, nil
}

// CreateUser inserts an account.
func (r *Repository) CreateUser(ctx context.Context, a Account, actor *uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `INSERT INTO users (id, email, username, password_hash, is_active, is_superuser, status, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		id, a.Email, a.Username, a.PasswordHash, a.IsActive, a.IsSuperuser, a.Status, actor)
	if err != nil {
		return uuid.Nil, mapWriteErr(err)
	}
	return id, nil
}

// UpdateUser rewrites an account. An empty PasswordHash keeps the stored hash.
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, a Account, actor *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET email = $2, username = $3,
		password_hash = COALESCE(NULLIF($4, ''), password_hash),
		is_active = $5, is_superuser = $6, status = $7, modified_at = now(), modified_by = $8
		WHERE id = $1 AND deleted_at IS NULL`,
		id, a.Email, a.Username, a.PasswordHash, a.IsActive, a.IsSuperuser, a.Status, actor)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrResourceNotFound
	}
	return nil
}

// DeleteUser soft-deletes the user, its role assignments, its attendee
// profile and that profile's reservations.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET deleted_at = now(), deleted_by = $2
			WHERE id = $1 AND deleted_at IS NULL`, id, actor)
		if err != nil {
			return fmt.Errorf("users: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		cascades := []struct{ name, sql string }{
			{"user roles", `UPDATE user_roles SET deleted_at = now(), deleted_by = $2
				WHERE user_id = $1 AND deleted_at IS NULL`},
			{"reservations", `UPDATE reservations SET deleted_at = now(), deleted_by = $2
				WHERE deleted_at IS NULL AND attendee_id IN (SELECT id FROM attendees WHERE user_id = $1)`},
			{"attendee", `UPDATE attendees SET deleted_at = now(), deleted_by = $2
				WHERE user_id = $1 AND deleted_at IS NULL`},
		}
		for _, c := range cascades {
			if _, err := tx.Exec(ctx, c.sql, id, actor); err != nil {
				return fmt.Errorf("users: cascade %s: %w", c.name, err)
			}
		}
		return nil
	})
}

// DirectPermissions lists the permissions granted to the user outside any role.
func (r *Repository) DirectPermissions(ctx context.Context, id uuid.UUID) ([]rbac.Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.codename, p.name, p.domain
		FROM user_permissions up JOIN permissions p ON p.id = up.permission_id
		WHERE up.user_id = $1 ORDER BY p.domain, p.codename`, id)
	if err != nil {
		return nil, fmt.Errorf("users: direct permissions: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[rbac.Permission])
}

// ReplacePermissions swaps the user's direct permission grants.
func (r *Repository) ReplacePermissions(ctx context.Context, id uuid.UUID, permissionIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("users: check user: %w", err)
		}
		if !exists {
			return shared.ErrResourceNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("users: clear permissions: %w", err)
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		tag, err := tx.Exec(ctx, `INSERT INTO user_permissions (user_id, permission_id)
			SELECT $1, id FROM permissions WHERE id = ANY($2::uuid[])`, id, permissionIDs)
		if err != nil {
			return fmt.Errorf("users: insert permissions: %w", err)
		}
		if int(tag.RowsAffected()) != len(permissionIDs) {
			return shared.FieldError("permissions", "Invalid pk - object does not exist.")
		}
		return nil
	})
}
