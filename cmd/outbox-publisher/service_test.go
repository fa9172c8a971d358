package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/internal/testutil"
	"github.com/angelmondragon/thriftdrop-backend/pkg/config"
	pkgdb "github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox/registry"
)

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{
		orderEvent(t, enums.EventOrderPaid, 0),
		orderEvent(t, enums.EventOrderCancelled, 0),
	}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, pub, &fakeRegistry{resolved: resolvedFor("orders-topic")}, dlq, nil)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	assert.Empty(t, dlq.entries)

	require.Len(t, pub.messages, 2)
	msg := pub.messages[1]
	assert.Equal(t, string(enums.EventOrderCancelled), msg.Attributes["event_type"])
	assert.Equal(t, repo.events[1].AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.Equal(t, []byte(repo.events[1].Payload), msg.Data)
}

func TestProcessBatchReportsEmptyBatch(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeRegistry{}, &fakeDLQRepo{}, nil)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessBatchDeadLettersUnresolvableEvent(t *testing.T) {
	event := orderEvent(t, enums.EventOrderRefunded, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	reg := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, &fakePublisher{}, reg, dlq, nil)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)

	require.Len(t, dlq.entries, 1)
	entry := dlq.entries[0]
	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, []byte(event.Payload), []byte(entry.Payload))
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	require.NotNil(t, entry.ErrorMessage)
	assert.Contains(t, *entry.ErrorMessage, "invalid payload")
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	assert.Empty(t, repo.published)
}

func TestProcessBatchDeadLettersAtMaxAttempts(t *testing.T) {
	event := orderEvent(t, enums.EventOrderPaid, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("deadline exceeded")}}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, pub, &fakeRegistry{resolved: resolvedFor("orders-topic")}, dlq, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, dlq.entries[0].ErrorReason)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchDeadLettersMissingPublisher(t *testing.T) {
	event := orderEvent(t, enums.EventOrderPaid, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, nil, &fakeRegistry{resolved: resolvedFor("orders-topic")}, dlq, nil)
	svc.publisherFactory = func(string) publisher { return nil }

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, dlq.entries[0].ErrorReason)
}

func TestProcessBatchAbortsOnBookkeepingError(t *testing.T) {
	repo := &fakeRepo{
		events:     []models.OutboxEvent{orderEvent(t, enums.EventOrderPaid, 0)},
		publishErr: errors.New("connection reset"),
	}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	svc := newTestService(t, repo, pub, &fakeRegistry{resolved: resolvedFor("orders-topic")}, &fakeDLQRepo{}, nil)

	_, err := svc.processBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark published")
}

func TestProcessBatchAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := outbox.NewRepository(db)
	dlqRepo := outbox.NewDLQRepository(db)
	emitter := outbox.NewService(repo, nil)

	orderID := uuid.New()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			OccurredAt:    time.Now().UTC(),
			Data: payloads.OrderPaidEvent{
				OrderID:       orderID,
				ReferenceCode: "TD-1001",
				PaymentID:     "pay_1",
			},
		})
	}))

	reg, err := registry.NewEventRegistry(config.PubSubConfig{DomainTopic: "domain", OrdersTopic: "orders"})
	require.NoError(t, err)

	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}
	svc, err := NewService(ServiceParams{
		Config:           &config.Config{},
		Logger:           testLogger(),
		DB:               pkgdb.NewFromGorm(db),
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         reg,
		DLQRepository:    dlqRepo,
		PublisherFactory: func(topic string) publisher { pub.topics = append(pub.topics, topic); return pub },
	})
	require.NoError(t, err)

	processed, err := svc.processBatch(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []string{"orders"}, pub.topics)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "aggregate_id = ?", orderID).Error)
	assert.NotNil(t, stored.PublishedAt)

	processed, err = svc.processBatch(ctx)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)

	_, err = NewService(ServiceParams{Config: &config.Config{}, Logger: testLogger()})
	require.Error(t, err)
}

func TestNextBackoffCaps(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(500*time.Millisecond, 500*time.Millisecond, 10*time.Second))
	assert.Equal(t, 10*time.Second, nextBackoff(8*time.Second, 500*time.Millisecond, 10*time.Second))
	assert.Equal(t, time.Second, nextBackoff(0, 500*time.Millisecond, 10*time.Second))
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, reg registryResolver, dlq dlqRepository, outboxCfg *config.OutboxConfig) *Service {
	t.Helper()
	cfg := &config.Config{Outbox: config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}}
	if outboxCfg != nil {
		cfg.Outbox = *outboxCfg
	}
	svc, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           testLogger(),
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         reg,
		PublisherFactory: func(string) publisher { return pub },
		DLQRepository:    dlq,
	})
	require.NoError(t, err)
	return svc
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard})
}

func orderEvent(tb testing.TB, eventType enums.OutboxEventType, attempts int) models.OutboxEvent {
	tb.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{}`),
	})
	require.NoError(tb, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

func resolvedFor(topic string) *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: topic, AggregateType: enums.AggregateOrder},
		Payload:    &payloads.OrderPaidEvent{},
	}
}

type fakeRepo struct {
	events     []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	terminal   []uuid.UUID
	publishErr error
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error { return nil }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error { return nil }

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
	topics   []string
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", f.err
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope = outbox.PayloadEnvelope{EventID: event.ID.String(), OccurredAt: time.Now()}
	return &resolved, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
