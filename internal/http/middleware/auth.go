package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/auth"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/model"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/tenant"
)

// TenantLocalKey is the key under which the resolved tenant context is
// stored in Fiber's context locals.
const TenantLocalKey = "tenant_context"

// Auth verifies the bearer token and resolves it to a tenant context.
// Requests without a valid token get 401; tokens whose claims cannot be
// mapped to a known index domain get 403. No handler runs without a
// fully resolved tenant.
func Auth(secret string, resolver *tenant.Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		tc, err := resolver.Resolve(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "tenant not resolved")
		}

		c.Locals(TenantLocalKey, tc)
		return c.Next()
	}
}

// TenantFromCtx returns the tenant context stored by Auth, or false if the
// request was not authenticated.
func TenantFromCtx(c *fiber.Ctx) (model.TenantContext, bool) {
	tc, ok := c.Locals(TenantLocalKey).(model.TenantContext)
	return tc, ok
}
