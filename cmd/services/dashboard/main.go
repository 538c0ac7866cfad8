package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/casetrend/internal/config"
	"github.com/soltixdb/casetrend/internal/events"
	"github.com/soltixdb/casetrend/internal/ingest"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/ranking"
	"github.com/soltixdb/casetrend/internal/router"
	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/services"
	"github.com/soltixdb/casetrend/internal/session"
	"github.com/soltixdb/casetrend/internal/utils"
	"github.com/soltixdb/casetrend/internal/view"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Dashboard service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	defaults, err := defaultParameters(cfg.View)
	if err != nil {
		logger.Fatal("Invalid view defaults", "error", err)
	}

	loader := ingest.NewLoader(ingest.Sources{
		Confirmed:  cfg.Data.ConfirmedURL,
		Deaths:     cfg.Data.DeathsURL,
		Recovered:  cfg.Data.RecoveredURL,
		Population: cfg.Data.PopulationPath,
	}, nil, cfg.Data.FetchTimeout, logger)

	store := series.NewStore()
	sessions := session.NewManager(cfg.View.SessionTTL, cfg.View.CleanupInterval)
	defer sessions.Stop()

	// Connect to the refresh event bus (configurable backend)
	instanceID := cfg.Events.GetInstanceID()
	logger.Info("Connecting to event bus", "type", cfg.Events.Type, "url", cfg.Events.URL, "instance_id", instanceID)
	bus, err := events.NewBus(cfg.Events, instanceID, nil)
	if err != nil {
		logger.Fatal("Failed to connect to event bus", "error", err)
	}
	defer func() { _ = bus.Close() }()
	logger.Info("Event bus connection established")

	refresh := services.NewRefreshService(logger, loader, store, sessions, bus,
		cfg.Events.Subject, instanceID, cfg.Data.RefreshInterval)

	// Create context for background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The dashboard has nothing to show without data, so the first load is fatal
	snap, err := refresh.Reload(ctx)
	if err != nil {
		logger.Fatal("Failed to load case tables", "error", err)
	}
	logger.Info("Case tables loaded", "version", snap.Version, "countries", len(snap.Table.Countries()))

	if err := refresh.Start(ctx); err != nil {
		logger.Fatal("Failed to start refresh service", "error", err)
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - admin endpoints are open")
	}

	dashboard := services.NewDashboardService(logger, store, sessions, defaults, ranking.ExclusionRule{
		Countries: cfg.Ranking.ExcludeCountries,
		Top:       cfg.Ranking.ExcludeTop,
	})

	app := router.New(logger, dashboard, refresh, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

// defaultParameters builds the initial view of every new dashboard
func defaultParameters(cfg config.ViewConfig) (view.Parameters, error) {
	params := view.DefaultParameters()

	category, err := series.ParseCategory(cfg.DefaultCategory)
	if err != nil {
		return params, err
	}
	averaging, err := view.ParseAveraging(cfg.DefaultAveraging)
	if err != nil {
		return params, err
	}

	if len(cfg.DefaultCountries) > 0 {
		params.Countries = append([]string(nil), cfg.DefaultCountries...)
	}
	params.Category = category
	params.Averaging = averaging
	params.WindowSize = cfg.DefaultWindowSize

	return params, params.Validate()
}
