// Package main provides the entry point for the civic report API server.
// It wires the ticket store, the external classification and geocoding
// services, and the HTTP routes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civicreport/internal/config"
	"civicreport/internal/handlers"
	"civicreport/internal/observability"
	"civicreport/internal/services"
	"civicreport/internal/store"
	contextutils "civicreport/internal/utils"

	"github.com/gin-gonic/gin"
)

// Application encapsulates the running server so it can be tested
type Application struct {
	router      *gin.Engine
	ticketStore *store.TicketStore
}

// NewApplication wires the services and returns a ready-to-run application.
func NewApplication(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Application, error) {
	ticketStore := store.NewTicketStore(&cfg.Storage, logger)
	if cfg.Storage.WatchExternalWrites {
		if err := ticketStore.StartWatcher(ctx); err != nil {
			return nil, contextutils.WrapError(err, "failed to start storage watcher")
		}
	}

	classifier := services.NewClassifierService(&cfg.Classifier, logger)
	geocoder := services.NewGeocodingService(&cfg.Geocoder, logger)
	ticketService := services.NewTicketService(cfg, ticketStore, classifier, classifier, geocoder, logger)

	router := handlers.NewRouter(cfg, ticketService, logger)

	return &Application{
		router:      router,
		ticketStore: ticketStore,
	}, nil
}

// Run starts the HTTP server and blocks until it fails or ctx is cancelled.
func (a *Application) Run(ctx context.Context, port string) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.router.Run(":" + port); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return contextutils.WrapError(err, "server failed")
	}
}

// Shutdown releases the application's resources.
func (a *Application) Shutdown(_ context.Context) error {
	return a.ticketStore.Close()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "civicreport-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if tp != nil {
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	logger.Info(ctx, "Starting civic report server", map[string]interface{}{
		"port":        cfg.Server.Port,
		"logLevel":    cfg.Server.LogLevel,
		"storagePath": cfg.Storage.Path(),
	})

	app, err := NewApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err)
		os.Exit(1)
	}

	appErr := make(chan error, 1)
	go func() {
		if err := app.Run(ctx, cfg.Server.Port); err != nil {
			appErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully")
	case err := <-appErr:
		logger.Error(ctx, "Application failed", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err)
		os.Exit(1)
	}
}
