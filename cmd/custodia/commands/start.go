package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devenkapadia/custodia/internal/logger"
	"github.com/devenkapadia/custodia/pkg/config"
	"github.com/devenkapadia/custodia/pkg/custody/api"
	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the custodia server",
	Long: `Start the custodia server with the specified configuration.

The server runs in the foreground; use a process supervisor for daemon
deployments.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/custodia/config.yaml.

Examples:
  # Start with default config location
  custodia start

  # Start with custom config file
  custodia start --config /etc/custodia/config.yaml

  # Start with environment variable overrides
  CUSTODIA_LOGGING_LEVEL=DEBUG custodia start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize the custody store
	custodyStore, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := custodyStore.Close(); err != nil {
			logger.Error("store close error", "error", err)
		}
	}()

	// Ensure staff user exists (generates random password on first run)
	staffPassword, err := custodyStore.EnsureStaffUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure staff user: %w", err)
	}
	if staffPassword != "" {
		logger.Info("Staff user created", "username", models.AdminUsername)
		fmt.Printf("\n*** IMPORTANT: Staff user created with password: %s ***\n", staffPassword)
		fmt.Println("Please save this password. It will not be shown again.")
		fmt.Println()
	}

	// Create the API server
	apiServer, err := api.NewServer(cfg.API, custodyStore)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	logger.Info("API server configured", "port", apiServer.Port())

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
	}

	return nil
}
