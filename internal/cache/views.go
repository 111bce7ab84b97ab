package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewTracker dedups visitor views with SETNX keys so unique counts survive
// restarts and stay correct across server instances.
type ViewTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewTracker(client *redis.Client, ttl time.Duration) *ViewTracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ViewTracker{client: client, ttl: ttl}
}

// FirstSeen reports whether visitorKey is new for resourceKey within the
// dedup window, marking it seen as a side effect.
func (t *ViewTracker) FirstSeen(ctx context.Context, resourceKey, visitorKey string) (bool, error) {
	key := fmt.Sprintf("seen:%s:%s", resourceKey, visitorKey)
	return t.client.SetNX(ctx, key, "1", t.ttl).Result()
}
