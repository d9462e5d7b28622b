// Command seed loads three sample customers into the configured store and
// prints the discount each one gets on a sample amount.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/solutiontech/gic/internal/adapter/storage/gormstore"
	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/service/customer"
	"github.com/solutiontech/gic/pkg/config"
)

var (
	configFile = flag.String("config", "", "YAML config file (default: search ./configs and .)")
	dbPath     = flag.String("db", "", "SQLite file, overrides database.path")
	amount     = flag.Float64("amount", 100000, "Amount to price for every customer")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Database.Driver, cfg.Database.Path = "sqlite", *dbPath
	}

	db, err := gormstore.NewConnection(cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer gormstore.Close(db)
	if err := gormstore.RunMigrations(db); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
		os.Exit(1)
	}

	svc := customer.NewService(
		gormstore.NewCustomerRepository(db, logger),
		logger,
		customer.WithActivityLog(gormstore.NewActivityRepository(db, logger)),
		customer.WithFactory(domain.NewFactory(cfg.Customer.PhoneRegion)),
	)

	if err := Seed(context.Background(), svc, os.Stdout, *amount); err != nil {
		fmt.Fprintf(os.Stderr, "Seed failed: %v\n", err)
		os.Exit(1)
	}
}
