package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"newsbrief/internal/middleware"
)

// SetupRoutes configures all routes for the application.
func SetupRoutes(app *fiber.App, handlers *Handlers, adminAPIKey string) {
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)
	api.Get("/digests", handlers.ListDigests)
	api.Get("/sources", handlers.ListSources)

	admin := api.Group("/admin", middleware.APIKey(adminAPIKey))
	{
		admin.Post("/digest/run", handlers.RunDigest)
		admin.Post("/sources", handlers.AddSource)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
