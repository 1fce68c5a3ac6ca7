package redis

import (
	"context"
	"time"
)

// EventGuard deduplicates externally delivered events within a scope. The
// database-side conditional update remains the authoritative idempotency
// check; the guard just short-circuits obvious redeliveries.
type EventGuard struct {
	store IdempotencyStore
	scope string
	ttl   time.Duration
}

// NewEventGuard builds a guard for one event scope.
func NewEventGuard(store IdempotencyStore, scope string, ttl time.Duration) *EventGuard {
	return &EventGuard{store: store, scope: scope, ttl: ttl}
}

// CheckAndMark marks the event as seen, reporting whether it already was.
func (g *EventGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	set, err := g.store.SetNX(ctx, g.store.IdempotencyKey(g.scope, eventID), "1", g.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Delete forgets an event so a redelivery can retry after a processing
// failure.
func (g *EventGuard) Delete(ctx context.Context, eventID string) error {
	return g.store.Del(ctx, g.store.IdempotencyKey(g.scope, eventID))
}
