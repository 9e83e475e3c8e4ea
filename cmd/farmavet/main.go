// FarmaVet: veterinary pharmacy inventory management.
//
// Terminal application for tracking medicine stock, expiry dates and
// alert thresholds in a small veterinary pharmacy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmavet/farmavet/internal/config"
	"github.com/farmavet/farmavet/internal/database"
	"github.com/farmavet/farmavet/internal/database/seed"
	"github.com/farmavet/farmavet/internal/models"
	"github.com/farmavet/farmavet/internal/tui"
	"github.com/farmavet/farmavet/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		migrateOnly = flag.Bool("migrate-only", false, "Run migrations and exit")
		seedData    = flag.Bool("seed", false, "Generate demonstration data")
		showVersion = flag.Bool("version", false, "Show version and exit")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("FarmaVet version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		// Force exit after timeout
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	// Run the application
	if err := run(ctx, *configPath, *migrateOnly, *seedData, *debugMode); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, migrateOnly, seedData, debugMode bool) error {
	// Load configuration
	cfg, cfgPath, err := config.Load(configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}

	// Create log file if configured
	var logHandler slog.Handler
	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer logFile.Close()

		logHandler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
	}

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	slog.Info("FarmaVet starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
	)

	// Get database path
	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("ensuring data directory: %w", err)
	}

	// Get backup directory
	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		slog.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	// Attempt database recovery if needed
	if _, err := os.Stat(dbPath); err == nil {
		report, err := database.AttemptRecovery(dbPath, backupDir)
		if err != nil {
			slog.Error("database recovery failed",
				"path", dbPath,
				"steps", len(report.Steps),
			)
			return fmt.Errorf("database recovery failed: %w", err)
		}

		switch report.Result {
		case database.RecoveryFromBackup:
			slog.Warn("database restored from backup",
				"backup", report.BackupUsed,
			)
		case database.RecoverySuccess:
			slog.Debug("database integrity verified")
		}
	}

	// Open database
	db, err := database.Open(dbPath, &cfg.Database, backupDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		slog.Info("closing database")
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	// Run migrations
	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if len(result.Applied) > 0 {
		slog.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}

	// Exit early if migrate-only mode
	if migrateOnly {
		slog.Info("migrations complete, exiting")
		return nil
	}

	// Generate demonstration data if requested
	if seedData {
		empty, err := seed.IsEmpty(ctx, db.DB)
		if err != nil {
			return fmt.Errorf("checking for existing data: %w", err)
		}
		if !empty {
			slog.Warn("database already contains medicines, skipping seed generation")
			return nil
		}

		generator := seed.NewGenerator(db.DB, seed.DefaultConfig())
		if err := generator.Generate(ctx); err != nil {
			return fmt.Errorf("generating seed data: %w", err)
		}

		slog.Info("seed data generation complete")
		return nil
	}

	clock := util.SystemClock{}

	// Threshold edits made in the app are written back to the config file
	save := func(t models.Thresholds) error {
		cfg.Alerts.ExpiryDays = t.ExpiryDays
		cfg.Alerts.LowStockRatio = t.LowStockRatio
		return config.Save(cfg, cfgPath)
	}

	// Set version info for TUI
	tui.Version = Version
	tui.BuildTime = BuildTime

	// Run TUI
	slog.Info("starting TUI", "pharmacy", cfg.Pharmacy.Name)

	if err := tui.Run(ctx, db, cfg, clock, save); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	slog.Info("FarmaVet shutdown complete")
	return nil
}
