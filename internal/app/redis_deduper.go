package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper tracks webhook event ids that have already been accepted so
// redelivered events can be acknowledged without reprocessing. The underlying
// writes are idempotent anyway; the guard just saves the round trips.
// An event id is only allowed to stay claimed once processing succeeded:
// callers must Release ids whose processing failed so the provider's
// redelivery gets another attempt.
type EventDeduper interface {
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// RedisEventDeduper implements distributed webhook dedupe using Redis SETNX
// with a TTL. A nil deduper (Redis not configured) disables the guard.
type RedisEventDeduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisEventDeduper(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisEventDeduper {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "learnhub:webhook_events"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisEventDeduper{
		client: client,
		prefix: trimmedPrefix,
		ttl:    ttl,
	}
}

// FirstDelivery reports whether this event id has not been seen inside the
// TTL window. Redis errors fail open: the event is treated as first delivery
// and the idempotent store guards absorb any duplicate work.
func (d *RedisEventDeduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	if d == nil || d.client == nil {
		return true, nil
	}
	normalized := strings.TrimSpace(eventID)
	if normalized == "" {
		return true, nil
	}

	key := fmt.Sprintf("%s:%s", d.prefix, normalized)
	set, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return true, err
	}
	return set, nil
}

// Release drops the claim on an event id whose processing failed, so the
// provider's redelivery is treated as a first delivery again. Without this
// a completion that 404s (user not yet synced) would stay swallowed for the
// whole TTL window.
func (d *RedisEventDeduper) Release(ctx context.Context, eventID string) error {
	if d == nil || d.client == nil {
		return nil
	}
	normalized := strings.TrimSpace(eventID)
	if normalized == "" {
		return nil
	}
	return d.client.Del(ctx, fmt.Sprintf("%s:%s", d.prefix, normalized)).Err()
}
