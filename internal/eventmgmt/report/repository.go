package report

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/eventhub/internal/eventmgmt/query"
)

// Source loads the rows of a report.
type Source interface {
	Rows(ctx context.Context, filters Filters) ([]Row, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Source.
func NewRepository(pool *pgxpool.Pool) Source {
	return &repository{pool: pool}
}

func (r *repository) Rows(ctx context.Context, filters Filters) ([]Row, error) {
	b := query.NewBuilder("e.deleted_at IS NULL")
	if filters.CategoryID != nil {
		b.Where("e.category_id = ?", *filters.CategoryID)
	}
	if filters.StartDate != nil {
		b.Where("e.date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		b.Where("e.date < ?", filters.EndDate.AddDate(0, 0, 1))
	}
	rows, err := r.pool.Query(ctx, `SELECT e.name, e.description, e.date, e.location, c.name, e.is_featured
		FROM events e JOIN categories c ON c.id = e.category_id`+b.Clause()+` ORDER BY e.date, e.name`, b.Args()...)
	if err != nil {
		return nil, fmt.Errorf("report: query events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		var out Row
		err := row.Scan(&out.Name, &out.Description, &out.Date, &out.Location, &out.Category, &out.IsFeatured)
		return out, err
	})
}
