package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/thriftdrop-backend/pkg/db"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByID returns a CodeNotFound error when the order does not exist.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := r.findOne(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// FindByPaymentID returns nil, nil when no order carries the payment id.
func (r *repository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, nil
	}
	return r.findOne(ctx, "payment_id = ?", paymentID)
}

// FindByReference returns nil, nil when no order carries the reference code.
func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, nil
	}
	return r.findOne(ctx, "reference_code = ?", reference)
}

// ResolveForPayment looks the order up by gateway payment id first and falls
// back to the storefront reference code.
func (r *repository) ResolveForPayment(ctx context.Context, paymentID, reference string) (*models.Order, error) {
	order, err := r.FindByPaymentID(ctx, paymentID)
	if err != nil || order != nil {
		return order, err
	}
	return r.FindByReference(ctx, reference)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*models.Order, error) {
	var order models.Order
	err := pkgdb.ForUpdate(r.db.WithContext(ctx)).
		Where(query, args...).
		Take(&order).Error
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return &order, nil
}

func (r *repository) ProductIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order product ids")
	}
	return ids, nil
}

// MarkPaid moves a pending order to paid, stamps paid_at and records the
// payment id when the order did not carry one yet.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, paidAt time.Time) error {
	updates := map[string]any{
		"status":     enums.OrderStatusPaid,
		"paid_at":    paidAt,
		"updated_at": paidAt,
	}
	if strings.TrimSpace(paymentID) != "" {
		updates["payment_id"] = gorm.Expr("COALESCE(payment_id, ?)", paymentID)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "mark order paid")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer pending")
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
