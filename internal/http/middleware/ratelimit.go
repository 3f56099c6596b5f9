package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Limiter decides whether a tenant may make another request this window.
type Limiter interface {
	Allow(ctx context.Context, tenantID string, limit int) (bool, error)
}

// RateLimit rejects requests once a tenant exceeds its hourly budget.
// Must run after Auth. A limiter outage fails open.
func RateLimit(limiter Limiter, limit int, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tc, ok := TenantFromCtx(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing tenant context")
		}

		allowed, err := limiter.Allow(c.UserContext(), tc.TenantID, limit)
		if err != nil {
			log.Warn("rate limit check failed", zap.String("tenant_id", tc.TenantID), zap.Error(err))
			return c.Next()
		}
		if !allowed {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
