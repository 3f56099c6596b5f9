// Package idempotency remembers invocation ids for a bounded window so
// at-least-once usage events can be deduplicated.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper answers whether an invocation id has been seen before. The first
// caller for an id gets false and atomically claims it.
type Deduper interface {
	Seen(ctx context.Context, id string) (bool, error)
}

// RedisDeduper implements Deduper with SET NX and a retention TTL. Ids older
// than the retention window are forgotten; the event source is trusted not
// to replay beyond it.
type RedisDeduper struct {
	client    *redis.Client
	retention time.Duration
	prefix    string
}

// NewRedisDeduper builds a deduper over an existing client.
func NewRedisDeduper(client *redis.Client, retention time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, retention: retention, prefix: "usage:inv:"}
}

// NewClient parses a redis URL and returns a connected client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Seen claims the id if unseen. SET NX makes the claim atomic across
// concurrent recorders.
func (d *RedisDeduper) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+id, 1, d.retention).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe check: %w", err)
	}
	return !ok, nil
}
