package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/metrics"
)

const defaultStaleWebhookThreshold = 15 * time.Minute

type StaleWebhookEventsJobParams struct {
	Logger     *logger.Logger
	Repository staleWebhookCounter
	Metrics    *metrics.WebhookMetrics
	Threshold  time.Duration
}

type staleWebhookCounter interface {
	CountStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)
}

// NewStaleWebhookEventsJob reports events stuck in processing. It only reads;
// the dispatcher remains the sole writer of webhook_events.
func NewStaleWebhookEventsJob(params StaleWebhookEventsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("webhook events repository required")
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = defaultStaleWebhookThreshold
	}
	return &staleWebhookEventsJob{
		logg:      params.Logger,
		repo:      params.Repository,
		metrics:   params.Metrics,
		threshold: threshold,
		now:       time.Now,
	}, nil
}

type staleWebhookEventsJob struct {
	logg      *logger.Logger
	repo      staleWebhookCounter
	metrics   *metrics.WebhookMetrics
	threshold time.Duration
	now       func() time.Time
}

func (j *staleWebhookEventsJob) Name() string { return "stale_webhook_events" }

func (j *staleWebhookEventsJob) Run(ctx context.Context) error {
	olderThan := j.now().UTC().Add(-j.threshold)
	count, err := j.repo.CountStaleProcessing(ctx, olderThan)
	if err != nil {
		return err
	}
	j.metrics.SetStaleProcessing(count)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale_count": count,
		"older_than":  olderThan,
	})
	if count > 0 {
		j.logg.Warn(logCtx, "webhook events stuck in processing")
		return nil
	}
	j.logg.Debug(logCtx, "no stale webhook events")
	return nil
}
