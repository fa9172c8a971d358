//go:build integration

package webhooks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/thriftdrop-backend/internal/testutil"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

func countWhere(t *testing.T, h *harness, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func TestPostgresDispatchConfirmedThenRedelivered(t *testing.T) {
	ctx := context.Background()
	h := newHarnessOn(t, testutil.NewPostgresClient(t).DB())
	p1 := testutil.SeedProduct(t, h.db, "Denim jacket", enums.ProductStatusReserved)
	p2 := testutil.SeedProduct(t, h.db, "Wool scarf", enums.ProductStatusReserved)
	order := testutil.SeedOrder(t, h.db, testutil.OrderSeed{Reference: "PG-1", Products: []*models.Product{p1, p2}})
	env := envelope("pg-e1", "payment.confirmed", map[string]any{
		"payment_id":      "pay_pg_1",
		"order_reference": "PG-1",
		"amount":          "50.00",
	})

	result, err := h.svc.Dispatch(ctx, env)
	require.NoError(t, err)
	require.Equal(t, ResultProcessed, result.Status)

	stored := testutil.ReloadOrder(t, h.db, order.ID)
	assert.Equal(t, enums.OrderStatusPaid, stored.Status)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "pay_pg_1", *stored.PaymentID)
	assert.Equal(t, enums.ProductStatusSold, testutil.ReloadProduct(t, h.db, p1.ID).Status)
	assert.Equal(t, enums.ProductStatusSold, testutil.ReloadProduct(t, h.db, p2.ID).Status)
	assert.Equal(t, int64(1), countWhere(t, h, &models.Delivery{}, "order_id = ?", order.ID))
	assert.Equal(t, int64(1), countWhere(t, h, &models.OutboxEvent{}, "aggregate_id = ? AND event_type = ?", order.ID, enums.EventOrderPaid))

	event := h.event(t, "pg-e1")
	assert.Equal(t, enums.WebhookEventStatusProcessed, event.Status)
	assert.JSONEq(t, `{"payment_id":"pay_pg_1","order_reference":"PG-1","amount":"50.00"}`, string(event.Payload))
	assert.Contains(t, string(event.Result), `"products_updated":2`)

	again, err := h.svc.Dispatch(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, again.Status)
	assert.Equal(t, int64(1), countWhere(t, h, &models.Delivery{}, "order_id = ?", order.ID))
}

func TestPostgresUniqueViolationOnInsertIsDuplicate(t *testing.T) {
	ctx := context.Background()
	h := newHarnessOn(t, testutil.NewPostgresClient(t).DB(), func(p *ServiceParams) {
		p.Events = blindLookup{Repository: p.Events}
	})
	p1 := testutil.SeedProduct(t, h.db, "Trench coat", enums.ProductStatusReserved)
	order := testutil.SeedOrder(t, h.db, testutil.OrderSeed{Reference: "PG-2", Products: []*models.Product{p1}})
	env := envelope("pg-e2", "payment.confirmed", map[string]any{"order_reference": "PG-2"})

	first, err := h.svc.Dispatch(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, first.Status)

	second, err := h.svc.Dispatch(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, second.Status)
	assert.Equal(t, int64(1), countWhere(t, h, &models.WebhookEvent{}, "event_id = ?", "pg-e2"))
	assert.Equal(t, int64(1), countWhere(t, h, &models.Delivery{}, "order_id = ?", order.ID))
}

func TestPostgresDispatchRollsBackOnHandlerFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("bulk update exploded")
	h := newHarnessOn(t, testutil.NewPostgresClient(t).DB(), func(p *ServiceParams) {
		p.Products = failingProducts{Repository: p.Products, err: boom}
	})
	p1 := testutil.SeedProduct(t, h.db, "Cord trousers", enums.ProductStatusReserved)
	order := testutil.SeedOrder(t, h.db, testutil.OrderSeed{Reference: "PG-3", Products: []*models.Product{p1}})

	_, err := h.svc.Dispatch(ctx, envelope("pg-e3", "payment.confirmed", map[string]any{"payment_id": "pay_pg_3", "order_reference": "PG-3"}))
	require.ErrorIs(t, err, boom)

	stored := testutil.ReloadOrder(t, h.db, order.ID)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
	assert.Nil(t, stored.PaidAt)
	assert.Nil(t, stored.PaymentID)
	assert.Equal(t, enums.ProductStatusReserved, testutil.ReloadProduct(t, h.db, p1.ID).Status)
	assert.Zero(t, countWhere(t, h, &models.Delivery{}, "order_id = ?", order.ID))
	assert.Zero(t, countWhere(t, h, &models.OutboxEvent{}, "aggregate_id = ?", order.ID))

	event := h.event(t, "pg-e3")
	assert.Equal(t, enums.WebhookEventStatusFailed, event.Status)
	require.NotNil(t, event.Error)
	assert.Contains(t, *event.Error, "bulk update exploded")
}

func TestPostgresConcurrentConfirmationsSerializeOnOrderRow(t *testing.T) {
	ctx := context.Background()
	h := newHarnessOn(t, testutil.NewPostgresClient(t).DB())
	p1 := testutil.SeedProduct(t, h.db, "Suede boots", enums.ProductStatusReserved)
	order := testutil.SeedOrder(t, h.db, testutil.OrderSeed{Reference: "PG-4", Products: []*models.Product{p1}})

	eventIDs := []string{"pg-e4a", "pg-e4b"}
	results := make([]Result, len(eventIDs))
	errs := make([]error, len(eventIDs))
	var wg sync.WaitGroup
	for i, id := range eventIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i], errs[i] = h.svc.Dispatch(ctx, envelope(id, "payment.confirmed", map[string]any{"order_reference": "PG-4"}))
		}(i, id)
	}
	wg.Wait()

	statuses := map[ResultStatus]int{}
	for i := range eventIDs {
		require.NoError(t, errs[i])
		statuses[results[i].Status]++
	}
	assert.Equal(t, map[ResultStatus]int{ResultProcessed: 1, ResultSkipped: 1}, statuses)
	assert.Equal(t, enums.OrderStatusPaid, testutil.ReloadOrder(t, h.db, order.ID).Status)
	assert.Equal(t, int64(1), countWhere(t, h, &models.Delivery{}, "order_id = ?", order.ID))
}
