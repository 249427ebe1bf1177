package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"newsbrief/internal/logger"
)

// APIKey guards admin endpoints with an X-API-Key header (a "Bearer " prefix
// is tolerated). An empty configured key rejects everything.
func APIKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := strings.TrimPrefix(c.Get("X-API-Key"), "Bearer ")
		if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			logger.Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Msg("authentication failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing API Key",
			})
		}
		return c.Next()
	}
}
