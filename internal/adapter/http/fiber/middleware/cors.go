package middleware

import (
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/solutiontech/gic/pkg/config"
)

// NewCORS builds the CORS handler from config. Export downloads need
// Content-Disposition exposed so browser clients can read the file name.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	origins := listOr(cfg.AllowedOrigins, "*")
	return fibercors.New(fibercors.Config{
		AllowOrigins:  origins,
		AllowMethods:  listOr(cfg.AllowedMethods, "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
		AllowHeaders:  listOr(cfg.AllowedHeaders, "Origin,Content-Type,Accept,"+APIKeyHeader),
		ExposeHeaders: listOr(cfg.ExposeHeaders, "Content-Disposition,X-Request-ID"),
		// fiber panics on credentials with a wildcard origin.
		AllowCredentials: cfg.Credentials && !slices.Contains(strings.Split(origins, ","), "*"),
		MaxAge:           cfg.MaxAge,
	})
}

func listOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ",")
}
