package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "thriftdrop"

// WebhookMetrics records payment webhook outcomes.
type WebhookMetrics struct {
	events          *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	staleProcessing prometheus.Gauge
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "webhooks",
		Name:      "events_total",
		Help:      "Payment webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "webhooks",
		Name:      "processing_seconds",
		Help:      "Time spent dispatching a webhook event.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler"})
	stale := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "webhooks",
		Name:      "stale_processing_events",
		Help:      "Webhook events stuck in processing past the configured threshold.",
	})
	reg.MustRegister(events, duration, stale)
	return &WebhookMetrics{
		events:          events,
		duration:        duration,
		staleProcessing: stale,
	}
}

// IncOutcome counts one dispatched event.
func (w *WebhookMetrics) IncOutcome(eventType, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	w.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records how long a handler ran.
func (w *WebhookMetrics) ObserveDuration(handler string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(handler)).Observe(duration.Seconds())
}

// SetStaleProcessing publishes the latest stale event count.
func (w *WebhookMetrics) SetStaleProcessing(count int64) {
	if w == nil || w.staleProcessing == nil {
		return
	}
	w.staleProcessing.Set(float64(count))
}
