package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordDecision("event_management.add_event", true)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "eventhub_authz_decisions_total") {
		t.Fatalf("expected authz counter in body, got: %s", rr.Body.String())
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if got := testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("/test", "418")); got != 1 {
		t.Fatalf("expected one recorded request, got %v", got)
	}
}

func TestRecordDecisionOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordDecision("security.view_user", true)
	metrics.RecordDecision("security.view_user", false)
	metrics.RecordDecision("security.view_user", false)

	if got := testutil.ToFloat64(metrics.authzDecisions.WithLabelValues("security.view_user", "denied")); got != 2 {
		t.Fatalf("expected 2 denials, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.authzDecisions.WithLabelValues("security.view_user", "granted")); got != 1 {
		t.Fatalf("expected 1 grant, got %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.RecordDecision("x", true)
}
