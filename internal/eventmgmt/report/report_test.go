package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eventhub/eventhub/internal/rbac"
	"github.com/eventhub/eventhub/internal/shared"
)

type sourceFunc func(ctx context.Context, f Filters) ([]Row, error)

func (fn sourceFunc) Rows(ctx context.Context, f Filters) ([]Row, error) { return fn(ctx, f) }

type queued struct {
	id      uuid.UUID
	filters Filters
}

type memQueue struct {
	jobs []queued
	err  error
}

func (q *memQueue) EnqueueEventReport(_ context.Context, id uuid.UUID, f Filters) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, queued{id: id, filters: f})
	return nil
}

type allowAll struct{}

func (allowAll) Authorize(context.Context, uuid.UUID, rbac.Capability) bool { return true }

var sampleRows = []Row{
	{Name: "Tech Conference", Description: "A tech conference", Date: time.Date(2030, 3, 4, 9, 30, 0, 0, time.UTC),
		Location: "San Francisco", Category: "Tech", IsFeatured: true},
	{Name: "Sports Meetup", Description: "A sports meetup", Date: time.Date(2030, 3, 5, 18, 0, 0, 0, time.UTC),
		Location: "Los Angeles", Category: "Sports"},
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func readSheet(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	return rows
}

func TestRenderWritesHeaderAndRows(t *testing.T) {
	data, err := Render(sampleRows)
	require.NoError(t, err)

	rows := readSheet(t, data)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, []string{"Tech Conference", "A tech conference", "2030-03-04 09:30:00", "San Francisco", "Tech", "Yes"}, rows[1])
	assert.Equal(t, "No", rows[2][5])
}

func TestRenderEmpty(t *testing.T) {
	data, err := Render(nil)
	require.NoError(t, err)
	rows := readSheet(t, data)
	require.NotEmpty(t, rows)
	assert.Equal(t, Headers, rows[0])
}

func TestParseFilters(t *testing.T) {
	cat := uuid.New()
	f, err := ParseFilters(url.Values{"category_id": {cat.String()}, "start_date": {"2030-01-01"}, "end_date": {"2030-01-31"}})
	require.NoError(t, err)
	assert.Equal(t, cat, *f.CategoryID)
	assert.Equal(t, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
	assert.Equal(t, time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC), *f.EndDate)

	_, err = ParseFilters(url.Values{"start_date": {"01/02/2030"}})
	assert.ErrorIs(t, err, shared.ErrInvalidDateFormat)
	_, err = ParseFilters(url.Values{"category_id": {"abc"}})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestRedisStoreRoundTripAndExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	id := uuid.New()

	_, _, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, shared.ErrResourceNotFound)

	require.NoError(t, store.Put(ctx, Job{ID: id, Status: StatusPending}, nil))
	job, data, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.Nil(t, data)

	require.NoError(t, store.Put(ctx, Job{ID: id, Status: StatusReady}, []byte("xlsx")))
	job, data, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, job.Status)
	assert.Equal(t, []byte("xlsx"), data)

	mr.FastForward(2 * time.Hour)
	_, _, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, shared.ErrResourceNotFound)
}

func TestServiceRequestAndBuild(t *testing.T) {
	store, _ := newRedisStore(t)
	queue := &memQueue{}
	var seen Filters
	src := sourceFunc(func(_ context.Context, f Filters) ([]Row, error) {
		seen = f
		return sampleRows, nil
	})
	svc := NewService(src, store, queue, nil)
	ctx := context.Background()
	cat := uuid.New()

	job, err := svc.Request(ctx, Filters{CategoryID: &cat})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, job.ID, queue.jobs[0].id)

	n, err := svc.Build(ctx, job.ID, queue.jobs[0].filters)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, cat, *seen.CategoryID)

	got, data, err := svc.Fetch(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)
	assert.Len(t, readSheet(t, data), 3)
}

func TestServiceBuildFailureIsRecorded(t *testing.T) {
	store, _ := newRedisStore(t)
	boom := errors.New("db down")
	svc := NewService(sourceFunc(func(context.Context, Filters) ([]Row, error) { return nil, boom }), store, &memQueue{}, nil)
	id := uuid.New()

	_, err := svc.Build(context.Background(), id, Filters{})
	assert.ErrorIs(t, err, boom)

	job, _, err := svc.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.NotContains(t, job.Error, "db down")
	assert.Equal(t, shared.ErrServerError.Message, job.Error)
}

func TestServiceRequestWithoutQueue(t *testing.T) {
	svc := NewService(sourceFunc(func(context.Context, Filters) ([]Row, error) { return nil, nil }), nil, nil, nil)
	_, err := svc.Request(context.Background(), Filters{})
	assert.ErrorIs(t, err, ErrAsyncUnavailable)
}

func newRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, svc, rbac.NewGuard(allowAll{}, nil)).MountRoutes(r)
	return r
}

func principalRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{ID: uuid.New()}))
}

func TestGenerateReportEndpoint(t *testing.T) {
	svc := NewService(sourceFunc(func(context.Context, Filters) ([]Row, error) { return sampleRows[:1], nil }), nil, nil, nil)
	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, principalRequest(http.MethodGet, "/generate-report?start_date=2030-01-01"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), Filename)
	assert.Len(t, readSheet(t, rec.Body.Bytes()), 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, principalRequest(http.MethodGet, "/generate-report?end_date=tomorrow"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FORM005", body["code"])
}

func TestAsyncReportEndpoints(t *testing.T) {
	store, _ := newRedisStore(t)
	queue := &memQueue{}
	svc := NewService(sourceFunc(func(context.Context, Filters) ([]Row, error) { return sampleRows, nil }), store, queue, nil)
	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, principalRequest(http.MethodPost, "/reports"))
	require.Equal(t, http.StatusAccepted, rec.Code)
	var job Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, StatusPending, job.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, principalRequest(http.MethodGet, "/reports/"+job.ID.String()))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	_, err := svc.Build(context.Background(), job.ID, Filters{})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, principalRequest(http.MethodGet, "/reports/"+job.ID.String()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, principalRequest(http.MethodGet, "/reports/"+uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAsyncReportWithoutQueue(t *testing.T) {
	router := newRouter(NewService(sourceFunc(func(context.Context, Filters) ([]Row, error) { return nil, nil }), nil, nil, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, principalRequest(http.MethodPost, "/reports"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
