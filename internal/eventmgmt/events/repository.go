package events

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

// Repository persists events and their speaker links.
type Repository interface {
	List(ctx context.Context, filters Filters, page query.ListFilters) ([]Event, int, error)
	Get(ctx context.Context, id uuid.UUID) (Event, error)
	Create(ctx context.Context, in Input, actor *uuid.UUID) (Event, error)
	Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Event, error)
	Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
	MarkFeatured(ctx context.Context, ids []uuid.UUID, actor *uuid.UUID) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectEvent = `SELECT e.id, e.name, e.description, e.date, e.location, e.is_featured, e.total_slots,
	(SELECT COUNT(*) FROM reservations r
	  WHERE r.event_id = e.id AND r.deleted_at IS NULL AND r.status = 'Confirmed') AS taken,
	c.id, c.name, e.created_at, e.created_by, e.modified_at, e.modified_by
	FROM events e JOIN categories c ON c.id = e.category_id`

var ordering = map[string]string{"date": "e.date", "name": "e.name"}

func scan(row pgx.Row) (Event, error) {
	var (
		e     Event
		taken int
	)
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.Location, &e.IsFeatured, &e.TotalSlots, &taken,
		&e.Category.ID, &e.Category.Name, &e.CreatedAt, &e.CreatedBy, &e.ModifiedAt, &e.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return Event{}, shared.ErrResourceNotFound
		}
		return Event{}, err
	}
	e.AvailableSlots = max(e.TotalSlots-taken, 0)
	e.Speakers = []Ref{}
	return e, nil
}

func mapWriteErr(err error) error {
	if db.IsForeignKeyViolation(err) {
		return shared.FieldError("category", "Invalid pk - object does not exist.")
	}
	return err
}

func (r *repository) List(ctx context.Context, filters Filters, page query.ListFilters) ([]Event, int, error) {
	b := query.NewBuilder("e.deleted_at IS NULL", "c.deleted_at IS NULL")
	if filters.Search != "" {
		b.Where("(e.name ILIKE ? ESCAPE '\\' OR e.description ILIKE ? ESCAPE '\\')", query.Like(filters.Search), query.Like(filters.Search))
	}
	if filters.Category != "" {
		b.Where("lower(c.name) = lower(?)", filters.Category)
	}
	if filters.Date != nil {
		b.Where("e.date::date = ?::date", filters.Date.Format(dateLayout))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events e JOIN categories c ON c.id = e.category_id`+b.Clause(),
		b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("events: count: %w", err)
	}

	where := b.Clause()
	limit, args := b.Page(page)
	rows, err := r.pool.Query(ctx, selectEvent+where+
		` ORDER BY `+query.OrderBy(filters.Ordering, ordering, "e.date ASC")+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("events: list: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) { return scan(row) })
	if err != nil {
		return nil, 0, fmt.Errorf("events: scan: %w", err)
	}
	if err := r.attachSpeakers(ctx, r.pool, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Event, error) {
	return r.get(ctx, r.pool, id)
}

func (r *repository) get(ctx context.Context, q db.Querier, id uuid.UUID) (Event, error) {
	e, err := scan(q.QueryRow(ctx, selectEvent+` WHERE e.id = $1 AND e.deleted_at IS NULL`, id))
	if err != nil {
		return Event{}, err
	}
	items := []Event{e}
	if err := r.attachSpeakers(ctx, q, items); err != nil {
		return Event{}, err
	}
	return items[0], nil
}

func (r *repository) attachSpeakers(ctx context.Context, q db.Querier, items []Event) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for i, e := range items {
		ids[i] = e.ID
		index[e.ID] = i
	}
	rows, err := q.Query(ctx, `SELECT es.event_id, s.id, s.name FROM event_speakers es
		JOIN speakers s ON s.id = es.speaker_id
		WHERE es.event_id = ANY($1::uuid[]) AND s.deleted_at IS NULL
		ORDER BY s.name`, ids)
	if err != nil {
		return fmt.Errorf("events: load speakers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			eventID uuid.UUID
			ref     Ref
		)
		if err := rows.Scan(&eventID, &ref.ID, &ref.Name); err != nil {
			return fmt.Errorf("events: scan speaker: %w", err)
		}
		i := index[eventID]
		items[i].Speakers = append(items[i].Speakers, ref)
	}
	return rows.Err()
}

func (r *repository) Create(ctx context.Context, in Input, actor *uuid.UUID) (Event, error) {
	var created Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		id := uuid.New()
		if _, err := tx.Exec(ctx, `INSERT INTO events (id, name, description, date, location, category_id, is_featured, total_slots,
			created_by, modified_by) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
			id, in.Name, in.Description, in.Date, in.Location, in.CategoryID, in.IsFeatured, in.TotalSlots, actor); err != nil {
			return mapWriteErr(err)
		}
		if err := replaceSpeakers(ctx, tx, id, in.SpeakerIDs); err != nil {
			return err
		}
		var err error
		created, err = r.get(ctx, tx, id)
		return err
	})
	return created, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) (Event, error) {
	var updated Event
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE events SET name = $2, description = $3, date = $4, location = $5,
			category_id = $6, is_featured = $7, total_slots = $8, modified_at = now(), modified_by = $9
			WHERE id = $1 AND deleted_at IS NULL`,
			id, in.Name, in.Description, in.Date, in.Location, in.CategoryID, in.IsFeatured, in.TotalSlots, actor)
		if err != nil {
			return mapWriteErr(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		if err := replaceSpeakers(ctx, tx, id, in.SpeakerIDs); err != nil {
			return err
		}
		updated, err = r.get(ctx, tx, id)
		return err
	})
	return updated, err
}

func replaceSpeakers(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, speakerIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM event_speakers WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("events: clear speakers: %w", err)
	}
	if len(speakerIDs) == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `INSERT INTO event_speakers (event_id, speaker_id)
		SELECT $1, s.id FROM speakers s WHERE s.id = ANY($2::uuid[]) AND s.deleted_at IS NULL`, eventID, speakerIDs)
	if err != nil {
		return fmt.Errorf("events: link speakers: %w", err)
	}
	if int(tag.RowsAffected()) != len(uniqueIDs(speakerIDs)) {
		return shared.FieldError("speakers", "Invalid pk - object does not exist.")
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Delete soft-deletes the event and its reservations.
func (r *repository) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE events SET deleted_at = now(), deleted_by = $2
			WHERE id = $1 AND deleted_at IS NULL`, id, actor)
		if err != nil {
			return fmt.Errorf("events: delete: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrResourceNotFound
		}
		if _, err := tx.Exec(ctx, `UPDATE reservations SET deleted_at = now(), deleted_by = $2
			WHERE event_id = $1 AND deleted_at IS NULL`, id, actor); err != nil {
			return fmt.Errorf("events: cascade reservations: %w", err)
		}
		return nil
	})
}

// MarkFeatured flags events as featured; events without a description are skipped.
func (r *repository) MarkFeatured(ctx context.Context, ids []uuid.UUID, actor *uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET is_featured = true, modified_at = now(), modified_by = $2
		WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL AND description <> ''`, ids, actor)
	if err != nil {
		return 0, fmt.Errorf("events: mark featured: %w", err)
	}
	return tag.RowsAffected(), nil
}
