package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsbrief/internal/logger"
	"newsbrief/internal/models"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/store"
)

// Handlers is the thin HTTP surface over the pipeline and its stores.
type Handlers struct {
	runner  *pipeline.Runner
	digests *store.DigestStore
	sources *store.SourceStore

	runTimeout time.Duration
}

// NewHandlers wires the API surface.
func NewHandlers(runner *pipeline.Runner, digests *store.DigestStore, sources *store.SourceStore) *Handlers {
	return &Handlers{
		runner:     runner,
		digests:    digests,
		sources:    sources,
		runTimeout: 10 * time.Minute,
	}
}

// HealthCheck handles GET /api/v1/health.
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// RunDigest handles POST /api/v1/digest/run. The run executes in the
// background; the response only acknowledges the start.
func (h *Handlers) RunDigest(c *fiber.Ctx) error {
	var req struct {
		Type string `json:"type"`
		Deep bool   `json:"deep"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body: " + err.Error(),
		})
	}

	digestType, err := models.ParseDigestType(req.Type)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.runTimeout)
		defer cancel()

		summary, err := h.runner.Run(ctx, models.RunOptions{DigestType: digestType, DeepMode: req.Deep})
		if err != nil {
			logger.Error().Err(err).Str("digest_type", string(digestType)).Msg("digest run failed")
			return
		}
		logger.Info().
			Str("digest_type", string(digestType)).
			Int("fetched", summary.ItemsFetched).
			Int("pushed", summary.ItemsPushed).
			Msg("digest run completed")
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "started",
		"type":   digestType,
		"deep":   req.Deep,
	})
}

// ListDigests handles GET /api/v1/digests.
func (h *Handlers) ListDigests(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	digests, err := h.digests.List(c.Context(), limit)
	if err != nil {
		logger.Error().Err(err).Msg("listing digests failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list digests",
		})
	}
	return c.JSON(fiber.Map{"items": digests, "total": len(digests)})
}

// ListSources handles GET /api/v1/sources.
func (h *Handlers) ListSources(c *fiber.Ctx) error {
	sources, err := h.sources.ListActive(c.Context())
	if err != nil {
		logger.Error().Err(err).Msg("listing sources failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list sources",
		})
	}
	return c.JSON(fiber.Map{"items": sources, "total": len(sources)})
}

// AddSource handles POST /api/v1/admin/sources.
func (h *Handlers) AddSource(c *fiber.Ctx) error {
	var req models.SourceDescriptor
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body: " + err.Error(),
		})
	}
	if req.Name == "" || req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and type are required",
		})
	}

	id, err := h.sources.Add(c.Context(), req.Name, req.Type, req.Config)
	if err != nil {
		logger.Error().Err(err).Str("name", req.Name).Msg("adding source failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add source",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}
