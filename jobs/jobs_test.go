package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/eventhub/internal/eventmgmt/report"
	jobmetrics "github.com/eventhub/eventhub/internal/jobs"
)

type builderFunc func(ctx context.Context, id uuid.UUID, f report.Filters) (int, error)

func (fn builderFunc) Build(ctx context.Context, id uuid.UUID, f report.Filters) (int, error) {
	return fn(ctx, id, f)
}

func TestEventReportJobBuildsPayload(t *testing.T) {
	id := uuid.New()
	cat := uuid.New()
	var gotID uuid.UUID
	var gotFilters report.Filters
	job := NewEventReportJob(builderFunc(func(_ context.Context, rid uuid.UUID, f report.Filters) (int, error) {
		gotID, gotFilters = rid, f
		return 4, nil
	}), nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewEventReportTask(EventReportPayload{ReportID: id, Filters: report.Filters{CategoryID: &cat}})
	require.NoError(t, err)
	assert.Equal(t, TaskEventReport, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, id, gotID)
	require.NotNil(t, gotFilters.CategoryID)
	assert.Equal(t, cat, *gotFilters.CategoryID)
}

func TestEventReportJobSkipsBadPayload(t *testing.T) {
	job := NewEventReportJob(builderFunc(func(context.Context, uuid.UUID, report.Filters) (int, error) {
		t.Fatal("builder must not run")
		return 0, nil
	}), nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskEventReport, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestEventReportJobPropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	job := NewEventReportJob(builderFunc(func(context.Context, uuid.UUID, report.Filters) (int, error) {
		return 0, boom
	}), nil, nil)
	task, err := NewEventReportTask(EventReportPayload{ReportID: uuid.New()})
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

type inspectorFunc func(queue string) (*asynq.QueueInfo, error)

func (fn inspectorFunc) GetQueueInfo(queue string) (*asynq.QueueInfo, error) { return fn(queue) }

func serveHealth(t *testing.T, inspector QueueInspector) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(inspector, nil).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestHealthReportsQueueInfo(t *testing.T) {
	rec := serveHealth(t, inspectorFunc(func(q string) (*asynq.QueueInfo, error) {
		return &asynq.QueueInfo{Queue: q, Pending: 2, Active: 1}, nil
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	var body queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, queueHealth{Queue: QueueDefault, Pending: 2, Active: 1}, body)
}

func TestHealthUnavailable(t *testing.T) {
	rec := serveHealth(t, inspectorFunc(func(string) (*asynq.QueueInfo, error) {
		return nil, errors.New("redis down")
	}))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serveHealth(t, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
