package deliveries

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

const orderUniqueConstraint = "deliveries_order_id_key"

// Repository persists delivery records. There is at most one per order.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error)
	ApplyStatus(ctx context.Context, id uuid.UUID, change StatusChange) error
}

// StatusChange is the column set written by a delivery transition.
type StatusChange struct {
	Status      enums.DeliveryStatus
	ScheduledAt *time.Time
	DeliveredAt *time.Time
	Notes       *string
	UpdatedAt   time.Time
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the delivery. A second delivery for the same order is a CodeConflict.
func (r *repository) Create(ctx context.Context, delivery *models.Delivery) (*models.Delivery, error) {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	if delivery.Status == "" {
		delivery.Status = enums.DeliveryStatusPending
	}
	if err := r.db.WithContext(ctx).Create(delivery).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, orderUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "delivery already exists for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery")
	}
	return delivery, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Delivery, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Delivery, error) {
	var delivery models.Delivery
	err := pkgdb.ForUpdate(r.db.WithContext(ctx)).Where(query, args...).Take(&delivery).Error
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery")
	}
	return &delivery, nil
}

func (r *repository) ApplyStatus(ctx context.Context, id uuid.UUID, change StatusChange) error {
	updates := map[string]any{
		"status":     change.Status,
		"updated_at": change.UpdatedAt,
	}
	if change.ScheduledAt != nil {
		updates["scheduled_at"] = *change.ScheduledAt
	}
	if change.DeliveredAt != nil {
		updates["delivered_at"] = *change.DeliveredAt
	}
	if change.Notes != nil {
		updates["notes"] = *change.Notes
	}
	res := r.db.WithContext(ctx).Model(&models.Delivery{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update delivery status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery not found")
	}
	return nil
}
