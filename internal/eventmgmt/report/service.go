package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/eventhub/eventhub/internal/shared"
)

// Enqueuer hands a report build to the background worker.
type Enqueuer interface {
	EnqueueEventReport(ctx context.Context, id uuid.UUID, filters Filters) error
}

// ErrAsyncUnavailable is returned when no queue or store is configured.
var ErrAsyncUnavailable = errors.New("report: asynchronous reports are not configured")

type Service struct {
	source   Source
	store    Store
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewService wires the report dependencies. store and enqueuer may be nil, in
// which case only synchronous generation is available.
func NewService(source Source, store Store, enqueuer Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, store: store, enqueuer: enqueuer, logger: logger}
}

// Generate renders the report inline.
func (s *Service) Generate(ctx context.Context, filters Filters) ([]byte, error) {
	rows, err := s.source.Rows(ctx, filters)
	if err != nil {
		return nil, err
	}
	return Render(rows)
}

// Request records a pending report and queues its build.
func (s *Service) Request(ctx context.Context, filters Filters) (Job, error) {
	if s.store == nil || s.enqueuer == nil {
		return Job{}, ErrAsyncUnavailable
	}
	job := Job{ID: uuid.New(), Status: StatusPending}
	if err := s.store.Put(ctx, job, nil); err != nil {
		return Job{}, err
	}
	if err := s.enqueuer.EnqueueEventReport(ctx, job.ID, filters); err != nil {
		job.Status, job.Error = StatusFailed, "could not be queued"
		if putErr := s.store.Put(ctx, job, nil); putErr != nil {
			s.logger.Warn("mark report failed", slog.String("report_id", job.ID.String()), slog.Any("error", putErr))
		}
		return Job{}, err
	}
	return job, nil
}

// Build renders a queued report and stores the outcome. A failed build is
// recorded on the job before the error is returned to the worker.
func (s *Service) Build(ctx context.Context, id uuid.UUID, filters Filters) (int, error) {
	if s.store == nil {
		return 0, ErrAsyncUnavailable
	}
	rows, err := s.source.Rows(ctx, filters)
	var data []byte
	if err == nil {
		data, err = Render(rows)
	}
	if err != nil {
		if putErr := s.store.Put(ctx, Job{ID: id, Status: StatusFailed, Error: shared.UserSafeMessage(err)}, nil); putErr != nil {
			s.logger.Warn("mark report failed", slog.String("report_id", id.String()), slog.Any("error", putErr))
		}
		return 0, err
	}
	return len(rows), s.store.Put(ctx, Job{ID: id, Status: StatusReady}, data)
}

// Fetch returns the job state, plus the workbook once it is ready.
func (s *Service) Fetch(ctx context.Context, id uuid.UUID) (Job, []byte, error) {
	if s.store == nil {
		return Job{}, nil, ErrAsyncUnavailable
	}
	return s.store.Get(ctx, id)
}
