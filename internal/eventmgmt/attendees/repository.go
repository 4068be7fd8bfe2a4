package attendees

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
	"github.com/eventhub/eventhub/internal/platform/db"
	"github.com/eventhub/eventhub/internal/shared"
)

// Repository persists attendees.
type Repository interface {
	List(ctx context.Context, filters query.ListFilters) ([]Attendee, int, error)
	Get(ctx context.Context, id uuid.UUID) (Attendee, error)
	Create(ctx context.Context, in Input, actor *uuid.UUID) (Attendee, error)
	Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Attendee, error)
	Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectAttendee = `SELECT a.id, a.user_id, u.email, u.username, COALESCE(a.phone, ''),
	a.created_at, a.created_by, a.modified_at, a.modified_by
	FROM attendees a JOIN users u ON u.id = a.user_id`

var ordering = map[string]string{"email": "u.email", "created_at": "a.created_at"}

func scan(row pgx.Row) (Attendee, error) {
	var a Attendee
	err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.Username, &a.Phone, &a.CreatedAt, &a.CreatedBy, &a.ModifiedAt, &a.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return Attendee{}, shared.ErrResourceNotFound
		}
		return Attendee{}, err
	}
	return a, nil
}

func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return shared.DuplicateError("user", "attendee with this user already exists.")
	case db.IsForeignKeyViolation(err):
		return shared.FieldError("user", "Invalid pk - object does not exist.")
	}
	return err
}

func (r *repository) List(ctx context.Context, filters query.ListFilters) ([]Attendee, int, error) {
	b := query.NewBuilder("a.deleted_at IS NULL", "u.deleted_at IS NULL")
	if filters.Search != "" {
		b.Where("(u.email ILIKE ? ESCAPE '\\' OR u.username ILIKE ? ESCAPE '\\')", query.Like(filters.Search), query.Like(filters.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attendees a JOIN users u ON u.id = a.user_id`+b.Clause(),
		b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("attendees: count: %w", err)
	}

	where := b.Clause()
	page, args := b.Page(filters)
	rows, err := r.pool.Query(ctx, selectAttendee+where+
		` ORDER BY `+query.OrderBy(filters.Ordering, ordering, "u.email ASC")+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("attendees: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Attendee, error) { return scan(row) })
	return out, total, err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Attendee, error) {
	return r.get(ctx, r.pool, id)
}

func (r *repository) get(ctx context.Context, q db.Querier, id uuid.UUID) (Attendee, error) {
	return scan(q.QueryRow(ctx, selectAttendee+` WHERE a.id = $1 AND a.deleted_at IS NULL`, id))
}

func (r *repository) Create(ctx context.Context, in Input, actor *uuid.UUID) (Attendee, error) {
	id := uuid.New()
	if _, err := r.pool.Exec(ctx, `INSERT INTO attendees (id, user_id, phone, created_by, modified_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $4)`, id, in.UserID, in.Phone, actor); err != nil {
		return Attendee{}, mapWriteErr(err)
	}
	return r.get(ctx, r.pool, id)
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Attendee, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE attendees SET user_id = $2, phone = NULLIF($3, ''),
		modified_at = now(), modified_by = $4 WHERE id = $1 AND deleted_at IS NULL`, id, in.UserID, in.Phone, actor)
	if err != nil {
		return Attendee{}, mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return Attendee{}, shared.ErrResourceNotFound
	}
	return r.get(ctx, r.pool, id)
}

// Delete soft-deletes the attendee and its reservations.
func (r *repository) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE attendees SET deleted_at = now(), deleted_by = $2
			WHERE id = $1 AND deleted_at IS NULL`, id, actor)
		if err != nil {
			return fmt.Errorf("attendees: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE reservations SET deleted_at = now(), deleted_by = $2
			WHERE attendee_id = $1 AND deleted_at IS NULL`, id, actor); err != nil {
			return fmt.Errorf("attendees: cascade reservations: %w", err)
		}
		return nil
	})
}
