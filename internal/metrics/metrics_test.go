package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"voice-receptionist/internal/calls"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CallObserved("tool", calls.StateUnseen)
	m.CallObserved("report", calls.StateOpen)
	m.CallObserved("report", calls.StateOpen)
	m.BookingResult("tool", "created")
	m.NotificationResult("admin", "sent")
	m.Webhook("tool-calls", "ok")

	if got := testutil.ToFloat64(m.CallObservations.WithLabelValues("report", "open")); got != 2 {
		t.Fatalf("expected 2 report observations, got %v", got)
	}
	if got := testutil.CollectAndCount(m.CallObservations); got != 2 {
		t.Fatalf("expected 2 label combinations, got %d", got)
	}

	expected := `
		# HELP receptionist_bookings_total Booking attempts by source and result
		# TYPE receptionist_bookings_total counter
		receptionist_bookings_total{result="created",source="tool"} 1
	`
	if err := testutil.CollectAndCompare(m.BookingCounter, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected metric value: %v", err)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Webhook("x", "y")
	m.CallObserved("tool", calls.StateOpen)
	m.BookingResult("tool", "created")
	m.NotificationResult("admin", "sent")
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `receptionist_http_request_duration_seconds_count{method="GET",route="/healthz",status_code="200"} 1`) {
		t.Fatalf("expected healthz latency sample in:\n%s", body)
	}
}
