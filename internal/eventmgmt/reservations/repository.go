package reservations

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

// Repository exposes reservation persistence.
type Repository interface {
	List(ctx context.Context, filters Filters, page query.ListFilters) ([]Reservation, int, error)
	Get(ctx context.Context, id uuid.UUID) (Reservation, error)
	Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository holds the operations that must share the event row lock.
type TxRepository interface {
	LockEvent(ctx context.Context, eventID uuid.UUID) (EventSlot, error)
	LockReservation(ctx context.Context, id uuid.UUID) (Reservation, error)
	CountConfirmed(ctx context.Context, eventID, excluding uuid.UUID) (int, error)
	Exists(ctx context.Context, eventID, attendeeID, excluding uuid.UUID) (bool, error)
	Insert(ctx context.Context, in Input, actor *uuid.UUID) (uuid.UUID, error)
	Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectReservation = `SELECT r.id, r.event_id, e.name, r.attendee_id, u.email, r.reservation_date, r.status,
	r.created_at, r.created_by, r.modified_at, r.modified_by
	FROM reservations r
	JOIN events e ON e.id = r.event_id
	JOIN attendees a ON a.id = r.attendee_id
	JOIN users u ON u.id = a.user_id`

var ordering = map[string]string{"reservation_date": "r.reservation_date", "status": "r.status"}

func scan(row pgx.Row) (Reservation, error) {
	var res Reservation
	err := row.Scan(&res.ID, &res.EventID, &res.EventName, &res.AttendeeID, &res.AttendeeEmail, &res.ReservationDate,
		&res.Status, &res.CreatedAt, &res.CreatedBy, &res.ModifiedAt, &res.ModifiedBy)
	if err != nil {
		if db.IsNoRows(err) {
			return Reservation{}, shared.ErrResourceNotFound
		}
		return Reservation{}, err
	}
	return res, nil
}

func (r *repository) List(ctx context.Context, filters Filters, page query.ListFilters) ([]Reservation, int, error) {
	b := query.NewBuilder("r.deleted_at IS NULL")
	if filters.EventID != nil {
		b.Where("r.event_id = ?", *filters.EventID)
	}
	if filters.Status != "" {
		b.Where("r.status = ?", string(filters.Status))
	}
	if page.Search != "" {
		b.Where("(e.name ILIKE ? ESCAPE '\\' OR u.email ILIKE ? ESCAPE '\\')", query.Like(page.Search), query.Like(page.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reservations r
		JOIN events e ON e.id = r.event_id
		JOIN attendees a ON a.id = r.attendee_id
		JOIN users u ON u.id = a.user_id`+b.Clause(), b.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("reservations: count: %w", err)
	}

	where := b.Clause()
	limit, args := b.Page(page)
	rows, err := r.pool.Query(ctx, selectReservation+where+
		` ORDER BY `+query.OrderBy(page.Ordering, ordering, "r.reservation_date ASC")+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("reservations: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Reservation, error) { return scan(row) })
	return out, total, err
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return scan(r.pool.QueryRow(ctx, selectReservation+` WHERE r.id = $1 AND r.deleted_at IS NULL`, id))
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reservations SET deleted_at = now(), deleted_by = $2
		WHERE id = $1 AND deleted_at IS NULL`, id, actor)
	if err != nil {
		return fmt.Errorf("reservations: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrResourceNotFound
	}
	return nil
}

// WithTx runs fn in a ReadCommitted transaction so counts taken after
// LockEvent observe every reservation committed before the lock was granted.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithLockingTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) LockEvent(ctx context.Context, eventID uuid.UUID) (EventSlot, error) {
	var slot EventSlot
	err := t.tx.QueryRow(ctx, `SELECT date, total_slots FROM events
		WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, eventID).Scan(&slot.Date, &slot.TotalSlots)
	if err != nil {
		if db.IsNoRows(err) {
			return EventSlot{}, shared.FieldError("event", "Invalid pk - object does not exist.")
		}
		return EventSlot{}, fmt.Errorf("reservations: lock event: %w", err)
	}
	return slot, nil
}

func (t *txRepository) LockReservation(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return scan(t.tx.QueryRow(ctx, selectReservation+` WHERE r.id = $1 AND r.deleted_at IS NULL FOR UPDATE OF r`, id))
}

func (t *txRepository) CountConfirmed(ctx context.Context, eventID, excluding uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM reservations
		WHERE event_id = $1 AND id <> $2 AND deleted_at IS NULL AND status = 'Confirmed'`, eventID, excluding).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("reservations: count confirmed: %w", err)
	}
	return n, nil
}

func (t *txRepository) Exists(ctx context.Context, eventID, attendeeID, excluding uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reservations
		WHERE event_id = $1 AND attendee_id = $2 AND id <> $3 AND deleted_at IS NULL)`,
		eventID, attendeeID, excluding).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("reservations: check duplicate: %w", err)
	}
	return exists, nil
}

func (t *txRepository) Insert(ctx context.Context, in Input, actor *uuid.UUID) (uuid.UUID, error) {
	id := uuid.New()
	_, err := t.tx.Exec(ctx, `INSERT INTO reservations (id, event_id, attendee_id, status, created_by, modified_by)
		VALUES ($1, $2, $3, $4, $5, $5)`, id, in.EventID, in.AttendeeID, string(in.Status), actor)
	if err != nil {
		return uuid.Nil, mapWriteErr(err)
	}
	return id, nil
}

func (t *txRepository) Update(ctx context.Context, id uuid.UUID, in Input, actor *uuid.UUID) error {
	_, err := t.tx.Exec(ctx, `UPDATE reservations SET event_id = $2, attendee_id = $3, status = $4,
		modified_at = now(), modified_by = $5 WHERE id = $1`, id, in.EventID, in.AttendeeID, string(in.Status), actor)
	return mapWriteErr(err)
}

func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return shared.ErrDuplicateReservation
	case db.IsForeignKeyViolation(err):
		return shared.FieldError("attendee", "Invalid pk - object does not exist.")
	}
	return fmt.Errorf("reservations: write: %w", err)
}
