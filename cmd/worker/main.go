// Package main provides the entry point for the civic report worker service.
// The worker periodically scans the ticket table for overdue open tickets and
// emails the authority a digest.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"civicreport/internal/config"
	"civicreport/internal/observability"
	"civicreport/internal/services"
	"civicreport/internal/store"
	"civicreport/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.NewConfig()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "civicreport-worker")
	if err != nil {
		panic("Failed to initialize observability: " + err.Error())
	}
	defer func() {
		if tp != nil {
			if err := tp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(context.TODO()); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	logger.Info(ctx, "Starting civic report worker", map[string]interface{}{
		"scanInterval": cfg.Triage.ScanInterval.Std().String(),
		"storagePath":  cfg.Storage.Path(),
	})

	ticketStore := store.NewTicketStore(&cfg.Storage, logger)
	classifier := services.NewClassifierService(&cfg.Classifier, logger)
	geocoder := services.NewGeocodingService(&cfg.Geocoder, logger)
	ticketService := services.NewTicketService(cfg, ticketStore, classifier, classifier, geocoder, logger)
	emailService := services.NewEmailService(cfg, logger)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	w := worker.NewWorker(ticketService, emailService, hostname, cfg, logger)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	<-shutdownCh
	logger.Info(ctx, "Received shutdown signal, stopping worker")
	cancel()
	<-done
}
