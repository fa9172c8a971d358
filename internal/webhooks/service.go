package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/internal/deliveries"
	"github.com/angelmondragon/thriftdrop-backend/internal/notifications"
	"github.com/angelmondragon/thriftdrop-backend/internal/orders"
	"github.com/angelmondragon/thriftdrop-backend/internal/products"
	"github.com/angelmondragon/thriftdrop-backend/internal/webhookevents"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/metrics"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox"
)

const (
	outcomeProcessed = "processed"
	outcomeDuplicate = "duplicate"
	outcomeIgnored   = "ignored"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Dispatcher is the surface the HTTP layer uses for payment webhooks.
type Dispatcher interface {
	Dispatch(ctx context.Context, envelope Envelope) (Result, error)
}

type ServiceParams struct {
	Events        webhookevents.Repository
	Orders        orders.Repository
	Products      products.Repository
	Deliveries    deliveries.Repository
	Notifications notifications.Repository
	Outbox        outbox.Emitter
	TxRunner      txRunner
	Metrics       *metrics.WebhookMetrics
	Logger        *logger.Logger
	Now           func() time.Time
}

// Service records every gateway event once and applies its order-lifecycle
// effects inside a single transaction.
type Service struct {
	events        webhookevents.Repository
	orders        orders.Repository
	products      products.Repository
	deliveries    deliveries.Repository
	notifications notifications.Repository
	outbox        outbox.Emitter
	tx            txRunner
	metrics       *metrics.WebhookMetrics
	logg          *logger.Logger
	now           func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook event repository required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "products repository required")
	}
	if params.Deliveries == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "deliveries repository required")
	}
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		events:        params.Events,
		orders:        params.Orders,
		products:      params.Products,
		deliveries:    params.Deliveries,
		notifications: params.Notifications,
		outbox:        params.Outbox,
		tx:            params.TxRunner,
		metrics:       params.Metrics,
		logg:          params.Logger,
		now:           now,
	}, nil
}

// Dispatch processes one envelope. Duplicates and unknown event types are
// not errors. A handler failure rolls back its transaction, marks the event
// failed and is returned to the caller.
func (s *Service) Dispatch(ctx context.Context, envelope Envelope) (Result, error) {
	envelope.EventID = strings.TrimSpace(envelope.EventID)
	envelope.EventType = strings.TrimSpace(envelope.EventType)
	if envelope.EventID == "" || envelope.EventType == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "event_id and event_type are required")
	}
	if len(envelope.Data) > 0 && !json.Valid(envelope.Data) {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "event data must be valid json")
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(s.logg.WithEventID(ctx, envelope.EventID), map[string]any{
			"event_type": envelope.EventType,
		})
	}

	existing, err := s.events.FindByEventID(ctx, envelope.EventID)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		return s.duplicate(ctx, envelope), nil
	}

	var payload json.RawMessage
	if len(envelope.Data) > 0 {
		payload = envelope.Data
	}
	record, err := s.events.Create(ctx, &models.WebhookEvent{
		EventID:   envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    enums.WebhookEventStatusProcessing,
	})
	if err != nil {
		if errors.Is(err, webhookevents.ErrDuplicateEvent) {
			return s.duplicate(ctx, envelope), nil
		}
		return Result{}, err
	}

	// The event row is claimed from here on; its final status is written even
	// when the request context is cancelled.
	writeCtx := context.WithoutCancel(ctx)

	kind, handler, ok := s.route(envelope.EventType)
	if !ok {
		result := Result{Status: ResultIgnored, Message: messageIgnored}
		if err := s.complete(writeCtx, record, result); err != nil {
			return Result{}, err
		}
		s.metrics.IncOutcome(eventTypeLabel(envelope.EventType), outcomeIgnored)
		if s.logg != nil {
			s.logg.Info(ctx, "webhook event type ignored")
		}
		return result, nil
	}

	started := s.now()
	var result Result
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, handlerErr := handler(ctx, tx, envelope.Data)
		if handlerErr != nil {
			return handlerErr
		}
		result = res
		return nil
	})
	s.metrics.ObserveDuration(string(kind), s.now().Sub(started))

	if err != nil {
		s.fail(writeCtx, record, err)
		s.metrics.IncOutcome(eventTypeLabel(envelope.EventType), outcomeFailed)
		return Result{}, err
	}

	if err := s.complete(writeCtx, record, result); err != nil {
		return Result{}, err
	}
	outcome := outcomeProcessed
	if result.Status == ResultSkipped {
		outcome = outcomeSkipped
	}
	s.metrics.IncOutcome(eventTypeLabel(envelope.EventType), outcome)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "outcome", outcome), "webhook event processed")
	}
	return result, nil
}

func (s *Service) duplicate(ctx context.Context, envelope Envelope) Result {
	s.metrics.IncOutcome(eventTypeLabel(envelope.EventType), outcomeDuplicate)
	if s.logg != nil {
		s.logg.Info(ctx, "duplicate webhook event")
	}
	return Result{Status: ResultDuplicate, Message: messageDuplicate}
}

func (s *Service) complete(ctx context.Context, record *models.WebhookEvent, result Result) error {
	var body json.RawMessage
	if result.Result != nil || result.Message != "" {
		encoded, err := json.Marshal(result)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode webhook result")
		}
		body = encoded
	}
	if _, err := s.events.UpdateStatus(ctx, record.ID, enums.WebhookEventStatusProcessed, nil, body); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "failed to mark webhook event processed", err)
		}
		return err
	}
	return nil
}

func (s *Service) fail(ctx context.Context, record *models.WebhookEvent, cause error) {
	message := cause.Error()
	if s.logg != nil {
		s.logg.Error(ctx, "webhook handler failed", cause)
	}
	if _, err := s.events.UpdateStatus(ctx, record.ID, enums.WebhookEventStatusFailed, &message, nil); err != nil && s.logg != nil {
		s.logg.Error(ctx, "failed to mark webhook event failed", err)
	}
}
