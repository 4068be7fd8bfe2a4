package categories

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

// Repository persists categories.
type Repository interface {
	List(ctx context.Context, filters query.ListFilters) ([]Category, int, error)
	Get(ctx context.Context, id uuid.UUID) (Category, error)
	Create(ctx context.Context, in Input, actor *uuid.UUID) (Category, error)
	Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Category, error)
	Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const columns = `id, name, COALESCE(description, ''), created_at, created_by, modified_at, modified_by`

var ordering = map[string]string{"name": "name", "created_at": "created_at"}

func scan(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.CreatedBy, &c.ModifiedAt, &c.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return Category{}, shared.ErrResourceNotFound
		}
		return Category{}, err
	}
	return c, nil
}

func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err) {
		return shared.DuplicateError("name", "category with this name already exists.")
	}
	return err
}

func (r *repository) List(ctx context.Context, filters query.ListFilters) ([]Category, int, error) {
	b := query.NewBuilder("deleted_at IS NULL")
	if filters.Search != "" {
		b.Where("(name ILIKE ? ESCAPE '\\' OR description ILIKE ? ESCAPE '\\')", query.Like(filters.Search), query.Like(filters.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("categories: count: %w", err)
	}

	where := b.Clause()
	page, args := b.Page(filters)
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM categories`+where+
		` ORDER BY `+query.OrderBy(filters.Ordering, ordering, "name ASC")+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("categories: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) { return scan(row) })
	return out, total, err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Category, error) {
	return scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM categories WHERE id = $1 AND deleted_at IS NULL`, id))
}

func (r *repository) Create(ctx context.Context, in Input, actor *uuid.UUID) (Category, error) {
	c, err := scan(r.pool.QueryRow(ctx, `INSERT INTO categories (id, name, description, created_by, modified_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $4) RETURNING `+columns,
		uuid.New(), in.Name, in.Description, actor))
	return c, mapWriteErr(err)
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Category, error) {
	c, err := scan(r.pool.QueryRow(ctx, `UPDATE categories SET name = $2, description = NULLIF($3, ''),
		modified_at = now(), modified_by = $4
		WHERE id = $1 AND deleted_at IS NULL RETURNING `+columns,
		id, in.Name, in.Description, actor))
	return c, mapWriteErr(err)
}

// Delete soft-deletes the category with its events and their reservations.
func (r *repository) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE categories SET deleted_at = now(), deleted_by = $2
			WHERE id = $1 AND deleted_at IS NULL`, id, actor)
		if err != nil {
			return fmt.Errorf("categories: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE reservations SET deleted_at = now(), deleted_by = $2
			WHERE deleted_at IS NULL AND event_id IN (SELECT id FROM events WHERE category_id = $1)`, id, actor); err != nil {
			return fmt.Errorf("categories: cascade reservations: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE events SET deleted_at = now(), deleted_by = $2
			WHERE category_id = $1 AND deleted_at IS NULL`, id, actor); err != nil {
			return fmt.Errorf("categories: cascade events: %w", err)
		}
		return nil
	})
}
