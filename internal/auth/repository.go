package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/eventhub/internal/platform/db"
	"github.com/eventhub/eventhub/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	UserLookup
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	CreateAccount(ctx context.Context, user *User, phone string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, is_active, is_superuser, status, last_login,
	created_at, created_by, modified_at, modified_by`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.IsSuperuser, &u.Status, &u.LastLogin,
		&u.CreatedAt, &u.CreatedBy, &u.ModifiedAt, &u.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, shared.ErrResourceNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail fetches a non-deleted user by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL`, email)
	return scanUser(row)
}

// FindByID fetches a non-deleted user by id.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users
		WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanUser(row)
}

// UpdateLastLogin stamps the login time.
func (r *PGRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("auth: update last_login: %w", err)
	}
	return nil
}

// CreateAccount inserts the user and its attendee profile in one transaction.
func (r *PGRepository) CreateAccount(ctx context.Context, user *User, phone string) (*User, error) {
	var created *User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO users (id, email, username, password_hash, is_active, is_superuser, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+userColumns,
			uuid.New(), user.Email, user.Username, user.PasswordHash, user.IsActive, user.IsSuperuser, user.Status)
		u, err := scanUser(row)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return shared.ErrEmailExists
			}
			return fmt.Errorf("auth: insert user: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO attendees (id, user_id, phone, created_by, modified_by)
			VALUES ($1, $2, $3, $2, $2)`, uuid.New(), u.ID, phone); err != nil {
			return fmt.Errorf("auth: insert attendee: %w", err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

var _ Repository = (*PGRepository)(nil)
