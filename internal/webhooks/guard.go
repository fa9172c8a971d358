package webhooks

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/thriftdrop-backend/pkg/redis"
)

// GuardConsumer scopes the Redis fast-path keys for payment webhooks.
const GuardConsumer = "payment-webhook"

// Guard short-circuits redeliveries before they reach Postgres. The
// webhook_events table stays authoritative; a missing key proves nothing.
type Guard struct {
	manager *idempotency.Manager
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	manager, err := idempotency.NewManager(store, ttl)
	if err != nil {
		return nil, err
	}
	return &Guard{manager: manager}, nil
}

// CheckAndMark reports whether eventID was already seen and marks it otherwise.
func (g *Guard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	return g.manager.CheckAndMark(ctx, GuardConsumer, eventID)
}

// Release drops the mark so a retried delivery reaches the dispatcher again.
func (g *Guard) Release(ctx context.Context, eventID string) error {
	return g.manager.Delete(ctx, GuardConsumer, eventID)
}
