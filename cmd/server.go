package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"classifieds-api/internal/config"
	"classifieds-api/internal/delivery/router"
	"classifieds-api/internal/infrastructure/metrics"
	"classifieds-api/internal/repository"
	"classifieds-api/internal/service"
	"classifieds-api/pkg/database"
	"classifieds-api/pkg/logger"
	"classifieds-api/pkg/utils"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	loggers, err := logger.SetupLogger(cfg.Logger.Level)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	loggers.InfoLogger.Info("Logger initialized")

	db, err := setupDatabase(cfg, loggers)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			loggers.ErrorLogger.Error("Failed to close database connection", utils.Err(err))
		}
	}()

	tracerProvider, err := setupTracer(cfg, loggers)
	if err != nil {
		return err
	}
	if tracerProvider != nil {
		defer shutdownTracer(tracerProvider, loggers)
	}

	reg := metrics.NewRegistry()
	loggers.InfoLogger.Info("Prometheus metrics initialized")

	adRepo, err := repository.NewSQLAdRepository(db, cfg.Database.Driver, reg.Repository)
	if err != nil {
		return err
	}
	schemaCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adRepo.EnsureSchema(schemaCtx); err != nil {
		loggers.ErrorLogger.Error("Failed to ensure schema", utils.Err(err))
		return err
	}
	loggers.InfoLogger.Info("Schema ready")

	adService := service.NewAdService(adRepo, service.SystemClock{}, reg.Service)

	handler := router.NewRouter(router.Deps{
		AdService: adService,
		Loggers:   loggers,
		Metrics:   reg.Handler,
	})
	loggers.InfoLogger.Info("Router and routes initialized")

	return serve(ctx, cfg, handler, loggers)
}

func setupDatabase(cfg *config.Config, loggers *logger.Loggers) (*sql.DB, error) {
	var dsn string
	switch cfg.Database.Driver {
	case database.DriverMySQL:
		dsn = database.MySQLDSN(
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Name)
	default:
		dsn = database.SQLiteDSN(cfg.Database.Path)
	}

	db, err := database.NewDatabase(cfg.Database.Driver, dsn)
	if err != nil {
		loggers.ErrorLogger.Error("Failed to connect to database", utils.Err(err))
		return nil, err
	}
	loggers.InfoLogger.Info("Connected to database", "driver", cfg.Database.Driver)

	return db, nil
}

// setupTracer returns a nil provider when no collector endpoint is configured.
func setupTracer(cfg *config.Config, loggers *logger.Loggers) (*sdktrace.TracerProvider, error) {
	if cfg.Tracing.Endpoint == "" {
		loggers.InfoLogger.Info("Tracing disabled")
		return nil, nil
	}

	tracerProvider, err := metrics.InitTracer(context.Background(), metrics.TracerOptions{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
		Version:     cfg.Tracing.Version,
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		loggers.ErrorLogger.Error("Failed to initialize tracer", utils.Err(err))
		return nil, err
	}
	loggers.InfoLogger.Info("OpenTelemetry Tracer initialized")
	return tracerProvider, nil
}

func shutdownTracer(tp *sdktrace.TracerProvider, loggers *logger.Loggers) {
	if err := tp.Shutdown(context.Background()); err != nil {
		loggers.ErrorLogger.Error("Failed to shut down tracer provider", utils.Err(err))
	}
}

func serve(ctx context.Context, cfg *config.Config, handler http.Handler, loggers *logger.Loggers) error {
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeout,
		WriteTimeout: cfg.HTTP.Timeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		loggers.InfoLogger.Info("Starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			loggers.ErrorLogger.Error("Failed to start server", utils.Err(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	loggers.InfoLogger.Info("Shutdown signal received, shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		loggers.ErrorLogger.Error("Server forced to shutdown", utils.Err(err))
		return err
	}
	loggers.InfoLogger.Info("Server shutdown gracefully")
	return nil
}
