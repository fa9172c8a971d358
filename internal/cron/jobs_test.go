package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/internal/notifications"
	dbtestutil "github.com/angelmondragon/thriftdrop-backend/internal/testutil"
	"github.com/angelmondragon/thriftdrop-backend/internal/webhookevents"
	pkgdb "github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/metrics"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox"
)

var jobNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func insertNotification(t *testing.T, db *gorm.DB, read bool, touched time.Time) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO notifications (id, type, title, message, is_read, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), "payment_received", "Payment received", "Order paid", read, touched, touched,
	).Error)
}

func insertOutboxEvent(t *testing.T, db *gorm.DB, publishedAt *time.Time) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO outbox_events (id, event_type, aggregate_type, aggregate_id, payload, created_at, published_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), "order_paid", "order", uuid.NewString(), `{}`, jobNow.Add(-90*24*time.Hour), publishedAt,
	).Error)
}

func insertWebhookEvent(t *testing.T, db *gorm.DB, status string, created time.Time) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO webhook_events (id, event_id, event_type, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), "evt_"+uuid.NewString(), "payment.confirmed", status, created, created,
	).Error)
}

func TestNotificationCleanupDeletesOnlyOldReadRows(t *testing.T) {
	db := dbtestutil.NewSQLiteDB(t)
	insertNotification(t, db, true, jobNow.Add(-40*24*time.Hour))
	insertNotification(t, db, true, jobNow.Add(-time.Hour))
	insertNotification(t, db, false, jobNow.Add(-40*24*time.Hour))

	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		DB:         pkgdb.NewFromGorm(db),
		Repository: notifications.NewRepository(db),
		Retention:  30 * 24 * time.Hour,
	})
	require.NoError(t, err)
	job.(*notificationCleanupJob).now = func() time.Time { return jobNow }

	require.Equal(t, "notification_cleanup", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int64(2), dbtestutil.CountRows(t, db, "notifications"))
}

func TestOutboxRetentionDeletesOldPublishedRows(t *testing.T) {
	db := dbtestutil.NewSQLiteDB(t)
	old := jobNow.Add(-45 * 24 * time.Hour)
	recent := jobNow.Add(-2 * 24 * time.Hour)
	insertOutboxEvent(t, db, &old)
	insertOutboxEvent(t, db, &recent)
	insertOutboxEvent(t, db, nil)

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		DB:         pkgdb.NewFromGorm(db),
		Repository: outbox.NewRepository(db),
	})
	require.NoError(t, err)
	job.(*outboxRetentionJob).now = func() time.Time { return jobNow }

	require.Equal(t, "outbox_retention", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int64(2), dbtestutil.CountRows(t, db, "outbox_events"))
}

func TestStaleWebhookEventsSetsGaugeWithoutMutating(t *testing.T) {
	db := dbtestutil.NewSQLiteDB(t)
	insertWebhookEvent(t, db, "processing", jobNow.Add(-time.Hour))
	insertWebhookEvent(t, db, "processing", jobNow.Add(-2*time.Hour))
	insertWebhookEvent(t, db, "processing", jobNow.Add(-time.Minute))
	insertWebhookEvent(t, db, "failed", jobNow.Add(-time.Hour))

	reg := prometheus.NewRegistry()
	job, err := NewStaleWebhookEventsJob(StaleWebhookEventsJobParams{
		Logger:     testLogger(),
		Repository: webhookevents.NewRepository(db),
		Metrics:    metrics.NewWebhookMetrics(reg),
		Threshold:  15 * time.Minute,
	})
	require.NoError(t, err)
	job.(*staleWebhookEventsJob).now = func() time.Time { return jobNow }

	require.Equal(t, "stale_webhook_events", job.Name())
	require.NoError(t, job.Run(context.Background()))

	count, err := testutil.GatherAndCount(reg, "thriftdrop_webhooks_stale_processing_events")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	var processing int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM webhook_events WHERE status = 'processing'`).Scan(&processing).Error)
	assert.Equal(t, int64(3), processing)
}

func TestStaleWebhookGaugeValue(t *testing.T) {
	db := dbtestutil.NewSQLiteDB(t)
	insertWebhookEvent(t, db, "processing", jobNow.Add(-time.Hour))
	insertWebhookEvent(t, db, "processing", jobNow.Add(-3*time.Hour))

	reg := prometheus.NewRegistry()
	webhookMetrics := metrics.NewWebhookMetrics(reg)
	job, err := NewStaleWebhookEventsJob(StaleWebhookEventsJobParams{
		Logger:     testLogger(),
		Repository: webhookevents.NewRepository(db),
		Metrics:    webhookMetrics,
	})
	require.NoError(t, err)
	job.(*staleWebhookEventsJob).now = func() time.Time { return jobNow }
	require.NoError(t, job.Run(context.Background()))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var gauge float64
	for _, mf := range mfs {
		if mf.GetName() == "thriftdrop_webhooks_stale_processing_events" {
			gauge = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(2), gauge)
}
