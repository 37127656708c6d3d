package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/repository"
	"github.com/linklytics/linklytics/internal/app/service"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"go.uber.org/zap"
)

// RedirectResolver maps a short code plus client context to a destination URL.
type RedirectResolver interface {
	Resolve(ctx context.Context, code string, cc service.ClientContext) (string, error)
}

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger   *zap.Logger
	Resolver RedirectResolver
}

// RedirectHandler serves the hot redirect path.
type RedirectHandler struct {
	logger   *zap.Logger
	resolver RedirectResolver
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:   logger,
		resolver: deps.Resolver,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:code", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "linklytics",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /:code and issues the redirect.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link code",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	cc := service.ClientContext{
		IP:        clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Time:      time.Now().UTC(),
	}

	target, err := h.resolver.Resolve(ctx, code, cc)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			infraprom.RedirectsTotal.WithLabelValues("not_found").Inc()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "short link not found",
			})
		}
		infraprom.RedirectsTotal.WithLabelValues("error").Inc()
		h.logger.Error("failed to resolve short link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	infraprom.RedirectsTotal.WithLabelValues("redirected").Inc()
	return c.Redirect(target, fiber.StatusFound)
}

// clientIP prefers the first forwarded-for hop, falling back to the peer address.
func clientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	return c.IP()
}
