package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/habitledger/internal/config"
	"github.com/goodtune/habitledger/internal/cue"
	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/goodtune/habitledger/internal/metrics"
	"github.com/goodtune/habitledger/internal/render"
	"github.com/goodtune/habitledger/internal/rules"
	"github.com/goodtune/habitledger/internal/storage"
	"github.com/goodtune/habitledger/internal/storage/bolt"
	"github.com/goodtune/habitledger/internal/storage/redis"
	"github.com/goodtune/habitledger/internal/tracker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// app bundles everything a command needs
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    storage.Store
	tracker  *tracker.Tracker
	rules    *rules.Engine // nil when no rules are configured
	renderer *render.Renderer
}

// openApp loads configuration, opens storage and loads the tracker
func openApp(ctx context.Context) (*app, error) {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	if !cfg.Display.Color {
		color.NoColor = true
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger.Debug().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	// Initialize achievement rules
	var engine *rules.Engine
	var ruleSet tracker.RuleSet
	if cfg.Achievements.RulesDir != "" {
		engine, err = rules.NewEngine(cfg.Achievements.RulesDir, logger)
		if err != nil {
			// Rules are optional; the built-in catalog still works
			logger.Warn().Err(err).Str("rules_dir", cfg.Achievements.RulesDir).Msg("Achievement rules disabled")
			engine = nil
		} else {
			ruleSet = engine
		}
	}

	var player cue.Player = cue.Nop{}
	if cfg.Tracker.Sound {
		player = cue.NewBell(os.Stderr)
	}

	t, err := tracker.New(store.Records(), tracker.Config{
		Clock:        tracker.RealClock{},
		Retention:    ledger.ParseRetention(cfg.Tracker.Retention),
		Rules:        ruleSet,
		Cues:         player,
		DefaultTitle: cfg.Tracker.DefaultTitle,
		CacheSize:    cfg.Tracker.ViewCacheSize,
		Exporter:     metrics.NewTextfileExporter(cfg.Metrics.TextfilePath, logger),
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize tracker: %w", err)
	}

	t.Load(ctx)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		tracker: t,
		rules:   engine,
		renderer: render.New(os.Stdout, render.Options{
			Currency:     cfg.Display.Currency,
			DecimalComma: cfg.Display.DecimalComma,
		}),
	}, nil
}

// Close warns about unsaved changes and closes storage
func (a *app) Close() {
	if err := a.tracker.PersistError(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: changes could not be saved: %v\n", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close storage")
	}
}

// openStorage opens the configured storage backend
func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	storageType := cfg.Type
	if storageType == "" {
		storageType = "bolt"
	}

	switch storageType {
	case "bolt":
		return bolt.Open(cfg.Path)
	case "redis":
		return redis.Open(cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// setupLogger configures the logger based on configuration. Logs go to
// stderr so rendered output on stdout stays clean.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.WarnLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
