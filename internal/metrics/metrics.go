package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusIgnored = "ignored"
	StatusPanic   = "panic"
)

// Metrics holds the Prometheus collectors of the webhook and push pipelines.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	WebhookRequestsTotal *prometheus.CounterVec
	PushRequestsTotal    *prometheus.CounterVec

	EventsTotal          *prometheus.CounterVec
	EventDurationSeconds *prometheus.HistogramVec

	UpstreamErrorsTotal *prometheus.CounterVec
}

func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		WebhookRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "game_line_webhook_requests_total",
				Help: "Total webhook invocations by response code",
			},
			[]string{"code"},
		),
		PushRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "game_line_push_requests_total",
				Help: "Total push invocations by response code",
			},
			[]string{"code"},
		),
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "game_line_events_total",
				Help: "Total webhook events handled by event type and status",
			},
			[]string{"event_type", "status"}, // status: success, error, ignored, panic
		),
		EventDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "game_line_event_duration_seconds",
				Help:    "Event handling duration in seconds by event type",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"event_type"},
		),
		UpstreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "game_line_upstream_errors_total",
				Help: "Total failed upstream calls by service and status code",
			},
			[]string{"service", "code"}, // code 0: no response
		),
	}
}

func (m *Metrics) RecordWebhook(code int) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) RecordPush(code int) {
	if m == nil {
		return
	}
	m.PushRequestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// RecordEvent records the outcome of one dispatched event
func (m *Metrics) RecordEvent(eventType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(eventType, status).Inc()
	m.EventDurationSeconds.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (m *Metrics) RecordUpstreamError(service string, code int) {
	if m == nil {
		return
	}
	m.UpstreamErrorsTotal.WithLabelValues(service, strconv.Itoa(code)).Inc()
}
