package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	finished := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m.ObserveRun("stale-webhooks", 250*time.Millisecond, finished, nil)
	m.ObserveRun("stale-webhooks", time.Second, finished.Add(time.Minute), errors.New("db down"))
	m.ObserveRun("", time.Millisecond, finished, nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("stale-webhooks", resultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("stale-webhooks", resultFailure)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("unknown", resultSuccess)))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("stale-webhooks")))

	count, err := testutil.GatherAndCount(reg, "thriftdrop_cron_job_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var nilMetrics *CronJobMetrics
	nilMetrics.ObserveRun("job", time.Second, time.Now(), nil)
	NewCronJobMetrics(nil).ObserveRun("job", time.Second, time.Now(), errors.New("boom"))
}
