package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// ResolvedTickPrefix is the key prefix for resolved reminder ticks
	ResolvedTickPrefix = "tick:resolved:"

	// ResolvedTickTTL bounds the idempotence horizon. A tick that was never
	// resolved is superseded by the next firing, so a stale id cannot recur
	// after a few hours and its entry can safely expire.
	ResolvedTickTTL = 6 * time.Hour
)

// ResolvedTickCache records which reminder ticks have already been resolved.
// It is the single guard that makes resolution idempotent across channels:
// the modal button and the notification action button race for the same key,
// and only the first claim wins.
type ResolvedTickCache interface {
	// MarkResolved claims a tick id. Returns true if this call made the
	// claim, false if the tick was already resolved.
	MarkResolved(ctx context.Context, tickID string) (bool, error)

	// Release undoes a claim after a failed counter mutation so that an
	// at-least-once redelivery can retry the same tick.
	Release(ctx context.Context, tickID string) error

	// IsResolved reports whether a tick id has been claimed.
	IsResolved(ctx context.Context, tickID string) (bool, error)
}

// RedisResolvedTickCache implements ResolvedTickCache with SETNX + TTL.
type RedisResolvedTickCache struct {
	client *redis.Client
}

// NewResolvedTickCache creates a ResolvedTickCache backed by Redis.
func NewResolvedTickCache(client *redis.Client) ResolvedTickCache {
	return &RedisResolvedTickCache{client: client}
}

func tickKey(tickID string) string {
	return ResolvedTickPrefix + tickID
}

// MarkResolved claims the tick with SETNX so exactly one caller wins even
// when two channels deliver the same decision.
func (c *RedisResolvedTickCache) MarkResolved(ctx context.Context, tickID string) (bool, error) {
	claimed, err := c.client.SetNX(ctx, tickKey(tickID), 1, ResolvedTickTTL).Result()
	if err != nil {
		log.Printf("[ResolvedCache] MarkResolved FAILED: tick=%s err=%v", tickID, err)
		return false, fmt.Errorf("mark tick resolved: %w", err)
	}

	if !claimed {
		log.Printf("[ResolvedCache] MarkResolved: tick=%s already resolved", tickID)
	}
	return claimed, nil
}

// Release drops the claim. Only called when the counter mutation failed
// after a successful claim.
func (c *RedisResolvedTickCache) Release(ctx context.Context, tickID string) error {
	if err := c.client.Del(ctx, tickKey(tickID)).Err(); err != nil {
		log.Printf("[ResolvedCache] Release FAILED: tick=%s err=%v", tickID, err)
		return fmt.Errorf("release tick claim: %w", err)
	}
	return nil
}

// IsResolved checks for the claim key.
func (c *RedisResolvedTickCache) IsResolved(ctx context.Context, tickID string) (bool, error) {
	n, err := c.client.Exists(ctx, tickKey(tickID)).Result()
	if err != nil {
		return false, fmt.Errorf("check tick resolved: %w", err)
	}
	return n > 0, nil
}

// MemoryResolvedTickCache is an in-process ResolvedTickCache used in tests
// and in single-instance deployments without Redis. Entries older than the
// horizon are evicted on insert to keep the set bounded.
type MemoryResolvedTickCache struct {
	mu      sync.Mutex
	claims  map[string]time.Time
	horizon time.Duration
}

// NewMemoryResolvedTickCache creates an in-memory ResolvedTickCache.
func NewMemoryResolvedTickCache() *MemoryResolvedTickCache {
	return &MemoryResolvedTickCache{
		claims:  make(map[string]time.Time),
		horizon: ResolvedTickTTL,
	}
}

func (c *MemoryResolvedTickCache) MarkResolved(ctx context.Context, tickID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, at := range c.claims {
		if now.Sub(at) > c.horizon {
			delete(c.claims, id)
		}
	}

	if _, ok := c.claims[tickID]; ok {
		return false, nil
	}
	c.claims[tickID] = now
	return true, nil
}

func (c *MemoryResolvedTickCache) Release(ctx context.Context, tickID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claims, tickID)
	return nil
}

func (c *MemoryResolvedTickCache) IsResolved(ctx context.Context, tickID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.claims[tickID]
	return ok, nil
}
