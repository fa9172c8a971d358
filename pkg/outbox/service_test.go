package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/thriftdrop-backend/internal/testutil"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

func TestEmitWritesEnvelopeOnTransaction(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := NewService(NewRepository(db), nil)
	orderID := uuid.New()

	tx := db.Begin()
	err := svc.Emit(ctx, tx, DomainEvent{
		EventType:     enums.EventOrderRefunded,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &ActorRef{Source: "payment-webhook"},
		Data:          map[string]string{"order_id": orderID.String()},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderRefunded, rows[0].EventType)
	assert.Equal(t, orderID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, "payment-webhook", envelope.Actor.Source)
	assert.JSONEq(t, `{"order_id":"`+orderID.String()+`"}`, string(envelope.Data))
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := NewService(NewRepository(db), nil)

	tx := db.Begin()
	require.NoError(t, svc.Emit(ctx, tx, DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]any{},
	}))
	require.NoError(t, tx.Rollback().Error)

	assert.Equal(t, int64(0), testutil.CountRows(t, db, "outbox_events"))
}

func TestEmitValidation(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewService(NewRepository(db), nil)

	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder})
	require.Error(t, err)

	err = svc.Emit(context.Background(), db, DomainEvent{EventType: "nope", AggregateType: enums.AggregateOrder})
	require.Error(t, err)

	err = svc.Emit(context.Background(), db, DomainEvent{EventType: enums.EventOrderPaid, AggregateType: "nope"})
	require.Error(t, err)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	first := &models.OutboxEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     time.Now().UTC().Add(-time.Minute),
	}
	second := &models.OutboxEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)

	require.NoError(t, repo.MarkPublishedTx(db, first.ID))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkFailedTx(db, second.ID, errors.New("pubsub unavailable")))
	}

	rows, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, rows)

	var failed models.OutboxEvent
	require.NoError(t, db.First(&failed, "id = ?", second.ID).Error)
	assert.Equal(t, 3, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "pubsub unavailable", *failed.LastError)
}

func TestDeletePublishedBefore(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	old := time.Now().UTC().Add(-48 * time.Hour)
	published := &models.OutboxEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		PublishedAt:   &old,
	}
	pending := &models.OutboxEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
	}
	require.NoError(t, repo.Insert(db, published))
	require.NoError(t, repo.Insert(db, pending))

	deleted, err := repo.DeletePublishedBefore(ctx, db, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, int64(1), testutil.CountRows(t, db, "outbox_events"))
}

func TestDLQInsertTruncatesMessage(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewDLQRepository(db)

	long := make([]byte, maxLastErrorLen+50)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)
	eventID := uuid.New()

	require.NoError(t, repo.InsertTx(db, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
		AttemptCount:  10,
	}))

	entry, err := repo.FindByEventID(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NotNil(t, entry.ErrorMessage)
	assert.Len(t, *entry.ErrorMessage, maxLastErrorLen)

	missing, err := repo.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	rows, err := repo.List(ctx, DLQListParams{Limit: 0})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMarkTerminalStopsRetries(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	event := &models.OutboxEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
	}
	require.NoError(t, repo.Insert(db, event))
	require.NoError(t, repo.MarkTerminalTx(db, event.ID, errors.New("unsupported event type"), 5))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, 5, stored.AttemptCount)
	assert.Nil(t, stored.PublishedAt)
}
