// Package main provides the main entry point for the civic report admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"civicreport/cmd/adm/commands"
	"civicreport/internal/config"
	"civicreport/internal/observability"
	"civicreport/internal/services"
	"civicreport/internal/store"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override log level for admin tool
	cfg.Server.LogLevel = "error"

	// Disable all OpenTelemetry features for the CLI to avoid connection errors
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "civicreport-adm")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
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

	ticketStore := store.NewTicketStore(&cfg.Storage, logger)
	classifier := services.NewClassifierService(&cfg.Classifier, logger)
	geocoder := services.NewGeocodingService(&cfg.Geocoder, logger)
	ticketService := services.NewTicketService(cfg, ticketStore, classifier, classifier, geocoder, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Civic Report Administration Tool",
		Long: `Civic Report Administration Tool

A CLI tool for inspecting and administering the issue report table.
Provides commands for listing, triaging and resolving tickets.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.TicketCommands(ticketService, logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
