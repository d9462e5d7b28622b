package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/adapter/export"
	"github.com/solutiontech/gic/internal/adapter/external/identity"
	"github.com/solutiontech/gic/internal/adapter/http/fiber/router"
	"github.com/solutiontech/gic/internal/adapter/http/fiber/views"
	"github.com/solutiontech/gic/internal/adapter/queue"
	"github.com/solutiontech/gic/internal/adapter/storage/gormstore"
	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/observability/telemetry"
	"github.com/solutiontech/gic/internal/service/customer"
	"github.com/solutiontech/gic/internal/service/email"
	"github.com/solutiontech/gic/internal/service/health"
	"github.com/solutiontech/gic/pkg/config"
	applog "github.com/solutiontech/gic/pkg/logger"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := applog.New(cfg.Logging, cfg.App.Environment == "development")
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting customer record keeper",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	shutdownTracer, err := telemetry.InitTracer(cfg.OpenTelemetry, cfg.App.Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// 4. Open the store
	db, err := gormstore.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer gormstore.Close(db)

	if cfg.Database.AutoMigrate {
		if err := gormstore.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}

	// 5. Initialize Message Queue. Events are best-effort, so a broker that
	// is down at boot only disables them.
	messageQueue, err := queue.New(cfg, logger)
	if err != nil {
		logger.Warn("Event queue unavailable, events disabled",
			zap.String("provider", cfg.Queue.Provider),
			zap.Error(err),
		)
		messageQueue = queue.NewNoopQueue(logger)
	}
	defer messageQueue.Close()

	// 6. Outbound integrations
	mailer, err := email.NewService(cfg.Email, logger)
	if err != nil {
		logger.Fatal("Failed to initialize email service", zap.Error(err))
	}
	identityClient := identity.New(cfg.Identity, cfg.CircuitBreaker, logger)
	if !identityClient.Configured() {
		logger.Info("Identity API not configured, using local validation")
	}

	// 7. Initialize Services (Business Logic Layer)
	formats := export.NewRegistry()
	events := queue.NewEventPublisher(messageQueue, cfg.Queue.SubjectPrefix, logger)
	customerService := customer.NewService(
		gormstore.NewCustomerRepository(db, logger),
		logger,
		customer.WithActivityLog(gormstore.NewActivityRepository(db, logger)),
		customer.WithIdentity(identityClient),
		customer.WithNotifier(mailer),
		customer.WithEvents(events),
		customer.WithFormats(formats),
		customer.WithExportDir(cfg.Customer.ExportDir),
		customer.WithFactory(domain.NewFactory(cfg.Customer.PhoneRegion)),
	)

	healthService := health.NewService(&health.Config{
		Version: cfg.App.Version,
		DB:      sqlDB,
		Queue:   messageQueue,
	}, logger)

	pages, err := views.Parse()
	if err != nil {
		logger.Fatal("Failed to parse page templates", zap.Error(err))
	}

	// 8. Background event audit
	if cfg.Queue.Provider != "" && cfg.Queue.Provider != "none" {
		startEventAudit(messageQueue, events.Subject("customer.*"), logger)
	}

	// 9. Initialize Fiber HTTP Server
	app := router.New(cfg, router.Deps{
		Customers: customerService,
		Formats:   formats.Formats(),
		Health:    healthService,
		Views:     pages,
	}, logger)

	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// startEventAudit logs every customer event seen on the broker.
func startEventAudit(mq queue.MessageQueue, subject string, logger *zap.Logger) {
	err := mq.Subscribe(subject, func(msg []byte) error {
		logger.Info("Customer event", zap.ByteString("event", msg))
		return nil
	})
	if err != nil {
		logger.Warn("Failed to subscribe to customer events", zap.String("subject", subject), zap.Error(err))
	}
}
