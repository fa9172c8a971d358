package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes back-office order operations.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
}

// UpdateStatusInput carries an admin-requested order transition.
type UpdateStatusInput struct {
	OrderID     uuid.UUID
	Status      enums.OrderStatus
	ActorUserID uuid.UUID
	ActorRole   enums.AdminRole
}

type ServiceParams struct {
	Repository Repository
	TxRunner   txRunner
	Outbox     outboxPublisher
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds the admin order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repository,
		tx:     params.TxRunner,
		outbox: params.Outbox,
		logg:   params.Logger,
		now:    now,
	}, nil
}

// UpdateStatus applies the transition table. Moving to the current status is a no-op.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", input.Status)
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status == input.Status {
			updated = order
			return nil
		}
		from := order.Status
		if !CanTransition(from, input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order cannot move from %s to %s", from, input.Status).
				WithDetails(map[string]any{
					"from":    from,
					"to":      input.Status,
					"allowed": AllowedTransitions(from),
				})
		}

		now := s.now().UTC()
		if input.Status == enums.OrderStatusPaid {
			if err := repo.MarkPaid(ctx, order.ID, "", now); err != nil {
				return err
			}
			order.PaidAt = &now
		} else if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return err
		}
		order.Status = input.Status

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID: order.ID,
				From:    from,
				To:      input.Status,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order status event")
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, updated.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "status", updated.Status), "order status updated")
	}
	return updated, nil
}

func buildActor(userID uuid.UUID, role enums.AdminRole) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	id := userID
	return &outbox.ActorRef{AdminID: &id, Role: string(role), Source: "admin"}
}
