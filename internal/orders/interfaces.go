package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// Repository defines persistence operations for orders and their items.
// Lookups used on write paths lock the row on Postgres.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	ResolveForPayment(ctx context.Context, paymentID, reference string) (*models.Order, error)
	ProductIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paymentID string, paidAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
}
