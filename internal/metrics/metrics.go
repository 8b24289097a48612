// Package metrics exposes Prometheus instruments for webhook handling, call
// reconciliation, bookings and notifications.
//
// Metrics satisfies the small Recorder interfaces declared by reconcile and
// notify, so those packages never import Prometheus directly.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voice-receptionist/internal/calls"
)

const namespace = "receptionist"

type Metrics struct {
	// WebhookCounter counts platform webhooks.
	// Labels: type (assistant-request|tool-calls|end-of-call-report|other), outcome
	WebhookCounter *prometheus.CounterVec

	// CallObservations counts reconciliation steps.
	// Labels: path (tool|report), previous_state (unseen|open|finalized)
	CallObservations *prometheus.CounterVec

	// BookingCounter counts booking attempts.
	// Labels: source (tool|analysis), result (created|duplicate|existing|<tool error code>)
	BookingCounter *prometheus.CounterVec

	// NotificationCounter counts notification sends.
	// Labels: kind (admin|customer), result (sent|failed|dropped|skipped)
	NotificationCounter *prometheus.CounterVec

	// HTTPRequestDuration measures request latency.
	// Labels: method, route, status_code
	HTTPRequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers all instruments on reg. Tests pass a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WebhookCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_total",
				Help:      "Voice platform webhooks by message type and outcome",
			},
			[]string{"type", "outcome"},
		),
		CallObservations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "call_observations_total",
				Help:      "Call reconciliation steps by entry path and the state the call was in",
			},
			[]string{"path", "previous_state"},
		),
		BookingCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_total",
				Help:      "Booking attempts by source and result",
			},
			[]string{"source", "result"},
		),
		NotificationCounter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Booking notification sends by recipient kind and result",
			},
			[]string{"kind", "result"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "route", "status_code"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) Webhook(messageType, outcome string) {
	if m == nil {
		return
	}
	m.WebhookCounter.WithLabelValues(messageType, outcome).Inc()
}

func (m *Metrics) CallObserved(path string, previous calls.State) {
	if m == nil {
		return
	}
	m.CallObservations.WithLabelValues(path, string(previous)).Inc()
}

func (m *Metrics) BookingResult(source, result string) {
	if m == nil {
		return
	}
	m.BookingCounter.WithLabelValues(source, result).Inc()
}

func (m *Metrics) NotificationResult(kind, result string) {
	if m == nil {
		return
	}
	m.NotificationCounter.WithLabelValues(kind, result).Inc()
}

// Middleware records request latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
