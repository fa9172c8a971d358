package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/thriftdrop-backend/internal/testutil"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
)

func TestResolveForPaymentPrefersPaymentID(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	byPayment := testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-1", PaymentID: "pay_1"})
	byReference := testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-2"})

	order, err := repo.ResolveForPayment(ctx, "pay_1", "TD-2")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, byPayment.ID, order.ID)

	order, err = repo.ResolveForPayment(ctx, "pay_unknown", "TD-2")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, byReference.ID, order.ID)

	order, err = repo.ResolveForPayment(ctx, "", "")
	require.NoError(t, err)
	assert.Nil(t, order)

	order, err = repo.ResolveForPayment(ctx, "pay_none", "TD-none")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestFindByIDNotFound(t *testing.T) {
	repo := NewRepository(testutil.NewSQLiteDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestProductIDs(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	p1 := testutil.SeedProduct(t, db, "Denim jacket", enums.ProductStatusReserved)
	p2 := testutil.SeedProduct(t, db, "Wool scarf", enums.ProductStatusReserved)
	order := testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-3", Products: []*models.Product{p1, p2}})
	testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-4"})

	ids, err := repo.ProductIDs(context.Background(), order.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{p1.ID, p2.ID}, ids)
}

func TestMarkPaidSetsPaymentIDWhenMissing(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	order := testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-5"})
	paidAt := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.MarkPaid(ctx, order.ID, "pay_5", paidAt))

	stored := testutil.ReloadOrder(t, db, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, paidAt.Equal(stored.PaidAt.UTC()))
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_5", *stored.PaymentID)
}

func TestMarkPaidKeepsExistingPaymentID(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	order := testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-6", PaymentID: "pay_original"})
	require.NoError(t, repo.MarkPaid(ctx, order.ID, "pay_other", time.Now().UTC()))

	stored := testutil.ReloadOrder(t, db, order.ID)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_original", *stored.PaymentID)
}

func TestMarkPaidRejectsNonPending(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	order := testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-7", Status: enums.OrderStatusCancelled})

	err := repo.MarkPaid(ctx, order.ID, "", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Nil(t, testutil.ReloadOrder(t, db, order.ID).PaidAt)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewRepository(db)

	order := testutil.SeedOrder(t, db, testutil.OrderSeed{Reference: "TD-8"})
	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled))
	assert.Equal(t, enums.OrderStatusCancelled, testutil.ReloadOrder(t, db, order.ID).Status)

	err := repo.UpdateStatus(ctx, uuid.New(), enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
