package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/pkg/apperrors"
	"github.com/solutiontech/gic/pkg/config"
)

// CircuitBreaker sheds API traffic while the store is unreachable. Only
// storage outages count as failures; client errors never trip it.
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gic-api",
		MaxRequests: uint32(max(cfg.MaxRequests, 1)),
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(max(cfg.MaxRequests, 1)) && failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, apperrors.ErrConnection)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(c *fiber.Ctx) error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, c.Next()
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"ok":    false,
				"error": "service temporarily unavailable",
				"kind":  apperrors.KindConnection,
			})
		}

		return err
	}
}
