// Package router assembles the Fiber application: middleware, health and
// metrics endpoints, the JSON API and the HTML pages.
package router

import (
	"html/template"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/adapter/http/fiber/handlers"
	"github.com/solutiontech/gic/internal/adapter/http/fiber/middleware"
	"github.com/solutiontech/gic/internal/ports"
	"github.com/solutiontech/gic/internal/service/health"
	"github.com/solutiontech/gic/pkg/config"
)

const systemName = "Gestor Inteligente de Clientes (GIC)"

// Deps are the collaborators the routes call into.
type Deps struct {
	Customers ports.CustomerService
	Formats   []string
	Health    *health.Service
	Views     *template.Template
}

// New builds the app. Health is optional; without Views the /ui pages are
// not mounted.
func New(cfg *config.Config, deps Deps, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		BodyLimit:             cfg.HTTP.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.NewCORS(cfg.CORS))

	app.Get("/", handlers.Info(systemName, cfg.App.Version))

	if deps.Health != nil {
		deps.Health.Mount(app)
	}

	if cfg.Prometheus.Enabled {
		path := cfg.Prometheus.Path
		if path == "" {
			path = "/metrics"
		}
		metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(path, func(c *fiber.Ctx) error {
			metrics(c.Context())
			return nil
		})
	}

	api := app.Group("/api",
		middleware.APIKeyRequired(cfg.Security.APIKey),
		middleware.CircuitBreaker(cfg.CircuitBreaker, log),
	)
	handlers.NewCustomerHandler(deps.Customers, log).RegisterRoutes(api)

	if deps.Views != nil {
		ui := app.Group("/ui")
		handlers.NewUIHandler(deps.Customers, deps.Formats, deps.Views, log).RegisterRoutes(ui)
	}

	return app
}
