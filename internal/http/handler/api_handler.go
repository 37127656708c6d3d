package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/repository"
	"github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/http/middleware"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"go.uber.org/zap"
)

const minAliasLength = 4

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Analytics   service.AnalyticsService
	BaseURL     string
}

// APIHandler implements the authenticated management and analytics endpoints.
type APIHandler struct {
	logger    *zap.Logger
	links     service.LinkService
	analytics service.AnalyticsService
	baseURL   string
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:    logger,
		links:     deps.LinkService,
		analytics: deps.Analytics,
		baseURL:   strings.TrimRight(deps.BaseURL, "/"),
	}
}

// Register wires API routes onto the provided router. The router is expected
// to already carry the auth middleware.
func (h *APIHandler) Register(api fiber.Router) {
	api.Post("/shorten", h.Shorten)
	api.Delete("/account", h.DeleteAccount)

	analytics := api.Group("/analytics")
	{
		// Literal segments must register ahead of the :code parameter.
		analytics.Get("/overall", h.OverallAnalytics)
		analytics.Get("/topic/:topic", h.TopicAnalytics)
		analytics.Get("/:code", h.LinkAnalytics)
	}
}

// ShortenRequest represents the request body for creating a short link.
type ShortenRequest struct {
	LongURL     string `json:"longUrl"`
	CustomAlias string `json:"customAlias,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

// ShortenResponse represents the response for a created short link.
type ShortenResponse struct {
	ShortURL  string    `json:"shortUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Shorten handles POST /api/shorten
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	var req ShortenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.LongURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "longUrl is required",
		})
	}
	if req.CustomAlias != "" && len(req.CustomAlias) < minAliasLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "customAlias must be at least 4 characters long",
		})
	}
	if req.Topic != "" && len(req.Topic) < minAliasLength {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "topic must be at least 4 characters long",
		})
	}

	link, err := h.links.CreateLink(requestCtx(c), userID, service.CreateLinkInput{
		OriginalURL: req.LongURL,
		CustomAlias: req.CustomAlias,
		Topic:       req.Topic,
	})
	if err != nil {
		var conflict *service.AliasConflictError
		if errors.As(err, &conflict) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"statusCode":  fiber.StatusBadRequest,
				"message":     "Unable to create short URL. Please try a different alias.",
				"suggestions": h.renderShortURLs(conflict.Suggestions),
			})
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return unauthorized(c)
		}
		h.logger.Error("failed to create link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create link",
		})
	}

	infraprom.LinksCreatedTotal.Inc()
	return c.Status(fiber.StatusCreated).JSON(ShortenResponse{
		ShortURL:  h.baseURL + "/" + link.ShortCode,
		CreatedAt: link.CreatedAt,
	})
}

// DeleteAccount handles DELETE /api/account. Removing the owner cascades to
// the owner's links and their access events.
func (h *APIHandler) DeleteAccount(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.links.DeleteOwner(requestCtx(c), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return unauthorized(c)
		}
		h.logger.Error("failed to delete account", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete account",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// LinkAnalytics handles GET /api/analytics/:code
func (h *APIHandler) LinkAnalytics(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	stats, err := h.analytics.ByLink(requestCtx(c), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "short link not found",
			})
		}
		h.logger.Error("failed to load link analytics", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(stats)
}

// TopicAnalytics handles GET /api/analytics/topic/:topic
func (h *APIHandler) TopicAnalytics(c *fiber.Ctx) error {
	topic := c.Params("topic")
	if topic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "topic is required",
		})
	}

	stats, err := h.analytics.ByTopic(requestCtx(c), topic)
	if err != nil {
		h.logger.Error("failed to load topic analytics", zap.Error(err), zap.String("topic", topic))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(stats)
}

// OverallAnalytics handles GET /api/analytics/overall
func (h *APIHandler) OverallAnalytics(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}

	stats, err := h.analytics.Overall(requestCtx(c), userID)
	if err != nil {
		h.logger.Error("failed to load overall analytics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load analytics",
		})
	}

	return c.JSON(stats)
}

func (h *APIHandler) renderShortURLs(codes []string) []string {
	urls := make([]string, 0, len(codes))
	for _, code := range codes {
		urls = append(urls, h.baseURL+"/"+code)
	}
	return urls
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "user doesn't exist",
	})
}

func requestCtx(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
