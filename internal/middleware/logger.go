package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"newsbrief/internal/logger"
)

// RequestLogger emits one structured log line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		event := logger.Info()
		if err != nil || c.Response().StatusCode() >= fiber.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Str("ip", c.IP()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
