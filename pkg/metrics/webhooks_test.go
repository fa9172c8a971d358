package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookMetricsExportsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.IncOutcome("payment.confirmed", "processed")
	m.IncOutcome("payment.confirmed", "processed")
	m.IncOutcome("", "ignored")
	m.ObserveDuration("payment_confirmed", 10*time.Millisecond)
	m.SetStaleProcessing(3)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.events.WithLabelValues("payment.confirmed", "processed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("unknown", "ignored")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.staleProcessing))

	expected := `
# HELP thriftdrop_webhooks_stale_processing_events Webhook events stuck in processing past the configured threshold.
# TYPE thriftdrop_webhooks_stale_processing_events gauge
thriftdrop_webhooks_stale_processing_events 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "thriftdrop_webhooks_stale_processing_events"))

	count, err := testutil.GatherAndCount(reg, "thriftdrop_webhooks_processing_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWebhookMetricsNilSafe(t *testing.T) {
	var nilMetrics *WebhookMetrics
	nilMetrics.IncOutcome("a", "b")
	nilMetrics.ObserveDuration("a", time.Second)
	nilMetrics.SetStaleProcessing(1)

	NewWebhookMetrics(nil).IncOutcome("a", "b")
}
