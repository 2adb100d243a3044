// Package dedupe keeps a redelivered trigger from notifying twice for the same incident.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard claims incident ids in Redis for a bounded time.
//
// A claim starts short lived, no longer than the job timeout, so a run that
// crashes or outlives its job cannot block the engine's redelivery. Confirm
// stretches it to the hold period once the incident has been notified.
type Guard struct {
	client   redis.Cmdable
	prefix   string
	claimTTL time.Duration
	holdTTL  time.Duration
}

// NewGuard returns a guard writing keys as prefix+incidentID.
func NewGuard(client redis.Cmdable, prefix string, claimTTL, holdTTL time.Duration) *Guard {
	return &Guard{client: client, prefix: prefix, claimTTL: claimTTL, holdTTL: holdTTL}
}

// Claim marks incidentID as being notified under owner. It returns false when
// another invocation already holds the claim.
func (g *Guard) Claim(ctx context.Context, incidentID, owner string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(incidentID), owner, g.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", incidentID, err)
	}
	return ok, nil
}

// Confirm keeps the claim for the hold period after a completed notification.
// A claim that lapsed during the run is taken again; one held by another
// invocation is left alone.
func (g *Guard) Confirm(ctx context.Context, incidentID, owner string) error {
	key := g.key(incidentID)

	current, err := g.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		err = g.client.SetNX(ctx, key, owner, g.holdTTL).Err()
	case err != nil:
	case current == owner:
		err = g.client.Expire(ctx, key, g.holdTTL).Err()
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("confirm %s: %w", incidentID, err)
	}
	return nil
}

// Release drops the claim if owner still holds it.
func (g *Guard) Release(ctx context.Context, incidentID, owner string) error {
	key := g.key(incidentID)

	current, err := g.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("release %s: %w", incidentID, err)
	}
	if current != owner {
		return nil
	}

	if err := g.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", incidentID, err)
	}
	return nil
}

func (g *Guard) key(incidentID string) string {
	return g.prefix + incidentID
}
