package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/eventhub/eventhub/internal/eventmgmt/report"
	jobmetrics "github.com/eventhub/eventhub/internal/jobs"
)

// ReportBuilder renders and stores a queued report.
type ReportBuilder interface {
	Build(ctx context.Context, id uuid.UUID, filters report.Filters) (int, error)
}

// EventReportJob builds event report workbooks for the async endpoint.
type EventReportJob struct {
	Builder ReportBuilder
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewEventReportJob wires dependencies for the report handler.
func NewEventReportJob(builder ReportBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *EventReportJob {
	return &EventReportJob{Builder: builder, Logger: logger, Metrics: metrics}
}

// Handle processes TaskEventReport tasks.
func (j *EventReportJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Builder == nil {
		return errors.New("event report: handler not configured")
	}
	var payload EventReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.ReportID == uuid.Nil {
		return fmt.Errorf("event report: bad payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskEventReport)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.String("report_id", payload.ReportID.String()))
	rows, err := j.Builder.Build(ctx, payload.ReportID, payload.Filters)
	if err != nil {
		logger.Error("build event report", slog.Any("error", err))
		return err
	}
	j.Metrics.AddReportRows(rows)
	logger.Info("event report ready", slog.Int("rows", rows))
	return nil
}

// TaskHandler registers the job with a Worker.
func (j *EventReportJob) TaskHandler() TaskHandler {
	return TaskHandler{Type: TaskEventReport, Handler: j.Handle}
}

func (j *EventReportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
