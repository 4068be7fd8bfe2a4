package speakers

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

// Repository persists speakers.
type Repository interface {
	List(ctx context.Context, filters query.ListFilters) ([]Speaker, int, error)
	Get(ctx context.Context, id uuid.UUID) (Speaker, error)
	Create(ctx context.Context, in Input, actor *uuid.UUID) (Speaker, error)
	Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Speaker, error)
	Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, name, COALESCE(bio, ''), email, COALESCE(phone_number, ''),
	created_at, created_by, modified_at, modified_by`

var ordering = map[string]string{"name": "name", "email": "email"}

func scan(row pgx.Row) (Speaker, error) {
	var s Speaker
	err := row.Scan(&s.ID, &s.Name, &s.Bio, &s.Email, &s.PhoneNumber, &s.CreatedAt, &s.CreatedBy, &s.ModifiedAt, &s.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return Speaker{}, shared.ErrResourceNotFound
		}
		return Speaker{}, err
	}
	return s, nil
}

func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err) {
		return shared.DuplicateError("email", "speaker with this email already exists.")
	}
	return err
}

func (r *repository) List(ctx context.Context, filters query.ListFilters) ([]Speaker, int, error) {
	b := query.NewBuilder("deleted_at IS NULL")
	if filters.Search != "" {
		b.Where("(name ILIKE ? ESCAPE '\\' OR email ILIKE ? ESCAPE '\\')", query.Like(filters.Search), query.Like(filters.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM speakers`+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("speakers: count: %w", err)
	}

	where := b.Clause()
	page, args := b.Page(filters)
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM speakers`+where+
		` ORDER BY `+query.OrderBy(filters.Ordering, ordering, "name ASC")+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("speakers: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Speaker, error) { return scan(row) })
	return out, total, err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Speaker, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM speakers WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repository) Create(ctx context.Context, in Input, actor *uuid.UUID) (Speaker, error) {
	s, err := scan(r.pool.QueryRow(ctx, `INSERT INTO speakers (id, name, bio, email, phone_number, created_by, modified_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $6) RETURNING `+columns,
		uuid.New(), in.Name, in.Bio, in.Email, in.PhoneNumber, actor))
	return s, mapWriteErr(err)
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Speaker, error) {
	s, err := scan(r.pool.QueryRow(ctx, `UPDATE speakers SET name = $2, bio = NULLIF($3, ''), email = $4,
		phone_number = NULLIF($5, ''), modified_at = now(), modified_by = $6
		WHERE id = $1 AND deleted_at IS NULL RETURNING `+columns,
		id, in.Name, in.Bio, in.Email, in.PhoneNumber, actor))
	return s, mapWriteErr(err)
}

// Delete soft-deletes the speaker and detaches it from events.
func (r *repository) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE speakers SET deleted_at = now(), deleted_by = $2
			WHERE id = $1 AND deleted_at IS NULL`, id, actor)
		if err != nil {
			return fmt.Errorf("speakers: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM event_speakers WHERE speaker_id = $1`, id); err != nil {
			return fmt.Errorf("speakers: detach events: %w", err)
		}
		return nil
	})
}
