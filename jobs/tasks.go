package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/eventhub/eventhub/internal/eventmgmt/report"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEventReport is the task type for building an event report workbook.
	TaskEventReport = "report:events"
)

// EventReportPayload identifies the report to build and its filters.
type EventReportPayload struct {
	ReportID uuid.UUID      `json:"report_id"`
	Filters  report.Filters `json:"filters"`
}

// NewEventReportTask constructs an Asynq task.
func NewEventReportTask(payload EventReportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEventReport, data, asynq.MaxRetry(3)), nil
}
