package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlforge/modelops/api"
	"github.com/mlforge/modelops/internal/abtest"
	"github.com/mlforge/modelops/internal/alerts"
	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/registry"
	"github.com/mlforge/modelops/internal/watchdog"
	"github.com/mlforge/modelops/pkg/config"
	"github.com/mlforge/modelops/pkg/database"
	"github.com/mlforge/modelops/pkg/database/queries"
	"github.com/mlforge/modelops/pkg/models"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	migrate := flag.Bool("migrate", false, "run database migrations")
	demo := flag.Bool("demo", false, "run an in-memory lifecycle demo")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	if *demo {
		return runDemo(cfg)
	}

	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	if *migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		logger.Info("Running database migrations")
		migrator := database.NewMigrator(db)
		if err := migrator.Run(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migrations completed successfully")
		return nil
	}

	// Alert persistence backs the watchdog's alert manager
	alertStore := alerts.NewPostgresStore(queries.NewAlertRepository(db.DB))
	wd := watchdog.New(cfg, alertStore)
	if err := wd.Start(); err != nil {
		return fmt.Errorf("failed to start watchdog: %w", err)
	}
	defer wd.Stop()

	artifacts, err := registry.NewFilesystemStore(cfg.Registry.ArtifactDir)
	if err != nil {
		return fmt.Errorf("failed to open artifact store: %w", err)
	}
	resilient := registry.NewResilientArtifactStore(artifacts,
		cfg.Registry.CircuitBreaker.MaxFailures, cfg.Registry.CircuitBreaker.Timeout)

	versionStore := registry.NewPostgresStore(queries.NewModelVersionRepository(db.DB))
	reg := registry.New(versionStore, resilient, wd.Publisher())

	abStore := abtest.NewPostgresStore(queries.NewABTestRepository(db.DB))
	framework := abtest.NewFramework(abtest.Config{
		SignificanceLevel:   cfg.ABTest.SignificanceLevel,
		DefaultSplit:        cfg.ABTest.DefaultSplit,
		DefaultDurationDays: cfg.ABTest.DefaultDurationDays,
	}, abStore, reg, wd.Publisher())

	feedFactory := func(modelName string) watchdog.PredictionFeed {
		feed := watchdog.NewHTTPFeed(watchdog.HTTPFeedConfig{
			Endpoint: cfg.Watchdog.FeedEndpoint,
			Timeout:  cfg.Watchdog.FeedTimeout,
		})
		return watchdog.NewResilientFeed(watchdog.ResilientFeedConfig{
			Feed:        feed,
			MaxFailures: cfg.Watchdog.CircuitBreaker.MaxFailures,
			Timeout:     cfg.Watchdog.CircuitBreaker.Timeout,
		})
	}

	server := api.NewServer(cfg.API, cfg.WebSocket, db, api.Deps{
		Registry:    reg,
		Watchdog:    wd,
		ABTests:     framework,
		FeedFactory: feedFactory,
	})

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// runDemo walks through the model lifecycle against in-memory stores: a
// healthy phase, injected feature drift, then noisy predictions.
func runDemo(cfg *config.Config) error {
	logger.Info("Running lifecycle demo")

	ctx := context.Background()

	wd := watchdog.New(cfg, alerts.NewMemoryStore())
	if err := wd.Start(); err != nil {
		return fmt.Errorf("failed to start watchdog: %w", err)
	}

	eventChan := wd.SubscribeAllEvents()
	go func() {
		for event := range eventChan {
			logger.Infof("[EVENT] %s: %s (model: %s, severity: %s)",
				event.Type, event.Message, event.ModelName, event.Severity)
		}
	}()

	reg := registry.New(registry.NewMemoryStore(), registry.NewMemoryArtifactStore(), wd.Publisher())

	const modelName = "churn-predictor"
	artifact := []byte("demo model weights v1")

	version, err := reg.Register(ctx, artifact, registry.RegisterInput{
		ModelName:   modelName,
		Version:     "1.0.0",
		Kind:        models.ModelKindClassification,
		Metrics:     map[string]float64{"accuracy": 0.92},
		Description: "Demo churn model",
	})
	if err != nil {
		return fmt.Errorf("failed to register model: %w", err)
	}
	logger.Infof("Registered %s %s (digest %s)", version.ModelName, version.Version, version.ArtifactDigest[:12])

	if err := reg.SetActive(ctx, modelName, "1.0.0"); err != nil {
		return fmt.Errorf("failed to activate model: %w", err)
	}

	// Reference and baseline come from training
	feed := watchdog.NewMockFeed(watchdog.MockFeedConfig{BatchSize: 200})
	feed.AddModel(modelName, []string{"tenure", "monthly_charges", "support_calls"})

	trainBatch, err := feed.Fetch(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to draw training batch: %w", err)
	}
	wd.Detector().SetReference(modelName, trainBatch.Features)
	wd.Monitor().SetBaseline(modelName, map[string]float64{"accuracy": 1.0})

	if err := wd.WatchModel(modelName, feed); err != nil {
		return fmt.Errorf("failed to watch model: %w", err)
	}

	logger.Info("=== Phase 1: Healthy serving (15 seconds) ===")
	time.Sleep(15 * time.Second)

	logger.Info("=== Phase 2: Feature drift (15 seconds) ===")
	feed.SetDriftShift(modelName, 2.0)
	time.Sleep(15 * time.Second)

	logger.Info("=== Phase 3: Noisy predictions (15 seconds) ===")
	feed.SetDriftShift(modelName, 0)
	feed.SetNoisy(modelName, true)
	time.Sleep(15 * time.Second)

	active, err := wd.AlertManager().Active(ctx, modelName)
	if err != nil {
		logger.Errorf("Failed to list alerts: %v", err)
	} else {
		logger.Infof("Active alerts: %d", len(active))
		for _, alert := range active {
			logger.Infof("  [%s] %s: %s", alert.Severity, alert.Kind, alert.Message)
		}
	}

	if err := wd.UnwatchModel(modelName); err != nil {
		logger.Errorf("Failed to unwatch model: %v", err)
	}
	wd.Stop()

	logger.Info("Lifecycle demo completed")
	return nil
}
