package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/http/middleware"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/service"
	"github.com/giancareina/sample-multi-tenant-saas-rag-for-isv/internal/tenant"
)

type sendMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(
	app *fiber.App,
	db *sql.DB,
	jwtSecret string,
	resolver *tenant.Resolver,
	docSvc service.DocumentService,
	chatSvc service.ChatService,
	usageSvc service.UsageService,
	tenantMW ...fiber.Handler,
) {
	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Everything below requires a resolved tenant; extra tenant-scoped
	// middleware (e.g. rate limiting) runs after auth.
	handlers := append([]fiber.Handler{middleware.Auth(jwtSecret, resolver)}, tenantMW...)
	api := app.Group("/", handlers...)

	// List documents endpoint with limit & offset
	api.Get("/documents", func(c *fiber.Ctx) error {
		tc, ok := middleware.TenantFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), tc, limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})

	// Presigned upload URL; the client uploads directly to object storage
	// and the bucket notification picks the object up from there.
	api.Get("/documents/upload-url", func(c *fiber.Ctx) error {
		tc, ok := middleware.TenantFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		ticket, err := docSvc.UploadURL(c.UserContext(), tc)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(ticket)
	})

	// Queue a document for (re-)indexing
	api.Post("/documents/:id/sync", func(c *fiber.Ctx) error {
		tc, ok := middleware.TenantFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.RequestSync(c.UserContext(), tc, id); err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			case errors.Is(err, service.ErrAlreadyIndexing):
				// A sync is already running; the request is a benign no-op.
				return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": id, "status": "indexing"})
			case errors.Is(err, service.ErrRetryLimit):
				return writeError(c, fiber.StatusConflict, "RETRY_LIMIT", "document exceeded its retry limit")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": id, "status": "accepted"})
	})

	// Delete document by ID
	api.Delete("/documents/:id", func(c *fiber.Ctx) error {
		tc, ok := middleware.TenantFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), tc, id); err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			case errors.Is(err, service.ErrConflict):
				return writeError(c, fiber.StatusConflict, "CONFLICT", "document is busy, retry later")
			case errors.Is(err, service.ErrPartialDelete):
				return writeError(c, fiber.StatusConflict, "PARTIAL_DELETE", "document removal is still in progress")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Ask a question inside a chat session
	api.Post("/chat/messages", func(c *fiber.Ctx) error {
		tc, ok := middleware.TenantFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		var req sendMessageRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.SessionID == "" {
			return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "session_id is required")
		}

		msg, err := chatSvc.SendMessage(c.UserContext(), tc, req.SessionID, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidQuery):
				return writeError(c, fiber.StatusBadRequest, "INVALID_QUERY", "message must not be empty")
			case errors.Is(err, service.ErrGenerationRejected):
				return writeError(c, fiber.StatusUnprocessableEntity, "GENERATION_REJECTED", "the model declined to answer this message")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(msg)
	})

	// Session transcript, oldest first
	api.Get("/chat/messages", func(c *fiber.Ctx) error {
		tc, ok := middleware.TenantFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		sessionID := c.Query("session_id")
		if sessionID == "" {
			return writeError(c, fiber.StatusBadRequest, "SESSION_REQUIRED", "session_id is required")
		}
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		msgs, err := chatSvc.History(c.UserContext(), tc, sessionID, limit)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": msgs})
	})

	// Monthly consumption dashboard
	api.Get("/usage/dashboard", func(c *fiber.Ctx) error {
		tc, ok := middleware.TenantFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		dash, err := usageSvc.Dashboard(c.UserContext(), tc.TenantID)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(dash)
	})
}
