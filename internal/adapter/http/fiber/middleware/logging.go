package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/observability/telemetry"
)

// RequestLogger logs method, route, status and duration of every request
// and records the HTTP metrics.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
		}
		route := c.Route().Path

		telemetry.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		telemetry.HTTPRequestLatency.WithLabelValues(c.Method(), route).Observe(duration.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
			log.Warn("HTTP request failed", fields...)
		} else {
			log.Debug("HTTP request completed", fields...)
		}

		return err
	}
}
