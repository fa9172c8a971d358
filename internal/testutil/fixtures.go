package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// SeedProduct inserts a product with the given status.
func SeedProduct(t *testing.T, db *gorm.DB, title string, status enums.ProductStatus) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:     uuid.New(),
		Title:  title,
		Price:  decimal.RequireFromString("25.00"),
		Status: status,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// OrderSeed describes an order fixture.
type OrderSeed struct {
	Reference string
	PaymentID string
	Status    enums.OrderStatus
	Products  []*models.Product
}

// SeedOrder inserts an order with one item per product, each charged at the product's price.
func SeedOrder(t *testing.T, db *gorm.DB, seed OrderSeed) *models.Order {
	t.Helper()

	status := seed.Status
	if status == "" {
		status = enums.OrderStatusPending
	}

	total := decimal.Zero
	for _, p := range seed.Products {
		total = total.Add(p.Price)
	}

	order := &models.Order{
		ID:            uuid.New(),
		ReferenceCode: seed.Reference,
		CustomerName:  "Test Buyer",
		CustomerEmail: "buyer@example.com",
		Total:         total,
		Status:        status,
	}
	if seed.PaymentID != "" {
		paymentID := seed.PaymentID
		order.PaymentID = &paymentID
	}
	require.NoError(t, db.Create(order).Error)

	for _, p := range seed.Products {
		item := &models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: p.ID,
			Price:     p.Price,
		}
		require.NoError(t, db.Create(item).Error)
	}
	return order
}

// ReloadOrder fetches the latest persisted order state.
func ReloadOrder(t *testing.T, db *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", id).Error)
	return order
}

// ReloadProduct fetches the latest persisted product state.
func ReloadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Table(table).Count(&count).Error)
	return count
}
