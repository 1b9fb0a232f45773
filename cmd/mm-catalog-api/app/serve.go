package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/meridianmaps/catalog-server/internal/app"
	"github.com/meridianmaps/catalog-server/internal/config"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog API server",
	Long: `Start the catalog API server to serve assembled map catalogs.

The server requires a configuration file (--config) that specifies:
- Catalog name and the groups to assemble (WFS, file, Git, or static sources)
- Refresh policies, filtering rules, and proxy settings
- All other operational settings

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

// defaultGracefulTimeout leaves the orchestrator enough time to drain
// connections before the process is killed
const defaultGracefulTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides the configured listener address)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	serveCmd.Flags().String("data-dir", "", "Directory for catalog snapshots and status files (overrides configuration)")

	for _, name := range []string{"address", "config", "data-dir"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	// Mark config as required
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := logging.Setup(viper.GetBool("debug"))
	ctx := logging.WithContext(cmd.Context(), logger)

	// Load and validate configuration
	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Info("Loaded configuration",
		"path", configPath,
		"catalog", cfg.GetCatalogName(),
		"groups", len(cfg.Groups),
	)

	// Initialize telemetry; a nil or disabled config yields no-op providers
	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	opts := []app.CatalogAppOptions{
		app.WithConfig(cfg),
	}
	if addr := viper.GetString("address"); addr != "" {
		opts = append(opts, app.WithAddress(addr))
	}
	if dataDir := viper.GetString("data-dir"); dataDir != "" {
		opts = append(opts, app.WithDataDirectory(dataDir))
	}
	if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
		opts = append(opts, app.WithTelemetry(tel))
	}

	catalogApp, err := app.NewCatalogApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	// Run until the HTTP server stops on its own or a termination signal
	// arrives. The first failure cancels the group context, which triggers
	// the shutdown path.
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(func() error {
		return catalogApp.Start()
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return catalogApp.Stop(defaultGracefulTimeout)
	})

	runErr := group.Wait()

	// Flush telemetry before exit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "Failed to shut down telemetry cleanly")
	}

	if runErr != nil {
		return runErr
	}

	logger.Info("Server exited")
	return nil
}
