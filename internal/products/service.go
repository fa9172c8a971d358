package products

import (
	"context"
	"fmt"

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

// Service exposes back-office product status changes.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Product, error)
}

type UpdateStatusInput struct {
	ProductID   uuid.UUID
	Status      enums.ProductStatus
	ActorUserID uuid.UUID
	ActorRole   enums.AdminRole
}

type ServiceParams struct {
	Repository Repository
	TxRunner   txRunner
	Outbox     outbox.Emitter
	Logger     *logger.Logger
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   params.Repository,
		tx:     params.TxRunner,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Product, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid product status %q", input.Status)
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := repo.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product.Status == input.Status {
			updated = product
			return nil
		}
		from := product.Status
		if !CanTransition(from, input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "product cannot move from %s to %s", from, input.Status).
				WithDetails(map[string]any{
					"from":    from,
					"to":      input.Status,
					"allowed": AllowedTransitions(from),
				})
		}
		if err := repo.UpdateStatus(ctx, product.ID, input.Status); err != nil {
			return err
		}
		product.Status = input.Status

		var actor *outbox.ActorRef
		if input.ActorUserID != uuid.Nil {
			id := input.ActorUserID
			actor = &outbox.ActorRef{AdminID: &id, Role: string(input.ActorRole), Source: "admin"}
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductStatusChanged,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         actor,
			Data: payloads.ProductStatusChangedEvent{
				ProductID: product.ID,
				From:      from,
				To:        input.Status,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit product status event")
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"product_id": updated.ID.String(),
			"status":     updated.Status,
		}), "product status updated")
	}
	return updated, nil
}
