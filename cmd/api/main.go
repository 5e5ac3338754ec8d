package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saturnino-fabrica-de-software/presenca/internal/api"
	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/database"
	"github.com/saturnino-fabrica-de-software/presenca/internal/face"
	"github.com/saturnino-fabrica-de-software/presenca/internal/liveness"
	"github.com/saturnino-fabrica-de-software/presenca/internal/pipeline"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
	"github.com/saturnino-fabrica-de-software/presenca/internal/repository"
	"github.com/saturnino-fabrica-de-software/presenca/internal/service"
	"github.com/saturnino-fabrica-de-software/presenca/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Presenca API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
		slog.Bool("audit", cfg.AuditEnabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Face extractor
	extractor, err := face.NewExtractor(cfg)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	analyzer := liveness.NewAnalyzer(liveness.Thresholds{
		MinSharpness:       cfg.SharpnessThreshold,
		MaxMoireMagnitude:  cfg.MoireThreshold,
		MinColorDispersion: cfg.DispersionThreshold,
		MinContrast:        cfg.ContrastThreshold,
	})

	faceService := service.NewFaceService(extractor, analyzer, pipeline.Options{
		IdentityThreshold: cfg.IdentityThreshold,
		BatchThreshold:    cfg.BatchThreshold,
		ProminenceRatio:   cfg.FaceProminenceRatio,
		CropMargin:        cfg.CropMargin,
	}, logger)

	// Live decision feed for attendance dashboards
	feed := ws.NewHub()
	faceService.WithPublisher(feed)

	deps := &api.Dependencies{
		Config:      cfg,
		FaceService: faceService,
		Feed:        feed,
	}
	if hc, ok := extractor.(provider.HealthChecker); ok {
		deps.Extractor = hc
	}

	// Decision audit trail (optional)
	if cfg.AuditEnabled() {
		pool, err := openAuditStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		auditRepo := repository.NewDecisionAuditRepository(pool)
		faceService.WithAuditRepository(auditRepo)
		deps.Decisions = auditRepo
		deps.DB = pool
	}

	// Setup router
	router := api.NewRouter(logger, deps)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}

// openAuditStore applies pending migrations and opens the pool.
func openAuditStore(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	dbName, err := database.DatabaseName(dsn)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQL(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, dbName, logger)
	if err != nil {
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return nil, err
	}
	_ = migrator.Close()

	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	logger.Info("decision audit enabled", slog.String("database", dbName))
	return pool, nil
}
