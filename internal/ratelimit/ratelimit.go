// Package ratelimit bounds per-tenant request volume with hourly Redis
// counters.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per tenant per hour bucket. Counters expire
// an hour after their first increment, so idle tenants leave no keys behind.
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

// NewRateLimiter builds a limiter over an existing client.
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow increments the tenant's counter for the current hour and reports
// whether it is still within limit. The first increment arms the expiry.
func (rl *RateLimiter) Allow(ctx context.Context, tenantID string, limit int) (bool, error) {
	key := fmt.Sprintf("ratelimit:tenant:%s:%s", tenantID, rl.now().UTC().Format("2006-01-02-15"))

	count, err := rl.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		rl.client.Expire(ctx, key, time.Hour)
	}

	return count <= int64(limit), nil
}
