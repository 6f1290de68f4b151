package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/metrics"
)

// Metrics records request count and latency per route pattern.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		if route == "" || route == "/" {
			route = "other"
		}
		metrics.RecordHTTP(c.Method(), route, status, time.Since(start))
		return err
	}
}
