package middleware

import (
	"strconv"
	"time"

	"plastikhb/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latencies per route pattern. /metrics and /health are
// not recorded.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" || c.Path() == "/health" {
			return c.Next()
		}

		start := time.Now()
		metrics.HttpRequestsInFlight.Inc()
		defer metrics.HttpRequestsInFlight.Dec()

		// Render errors here, as fiber's logger does, so the recorded status is the one sent.
		if err := c.Next(); err != nil {
			if handlerErr := c.App().Config().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		// Route().Path is the pattern (/products/:id), which keeps label cardinality bounded.
		path := c.Route().Path
		metrics.HttpRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		metrics.HttpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return nil
	}
}
