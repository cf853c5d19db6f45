package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/browser"
	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
	"github.com/Michael-ctrl-eng/radio-monitor/internal/monitor"
	"github.com/Michael-ctrl-eng/radio-monitor/internal/store"
	"github.com/Michael-ctrl-eng/radio-monitor/internal/version"
)

// postLoginSettle is how long the login flow waits for navigation to settle
// before probing for the dashboard marker.
const postLoginSettle = 2 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	viperCfg, err := config.LoadViper(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(viperCfg)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("radio monitor starting", zap.String("version", version.Short()))
	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults and environment")
	}

	loginURL, err := cfg.Target.LoginURL()
	if err != nil {
		logger.Fatal("resolve login url", zap.Error(err))
	}
	statusURL, err := cfg.Target.StatusURL()
	if err != nil {
		logger.Fatal("resolve status url", zap.Error(err))
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx, "monitor", monitor.Migrations()); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	errlog, err := monitor.NewErrorLog(cfg.Files.Dir, cfg.Files.LogPrefix, logger.Named("errlog"))
	if err != nil {
		logger.Fatal("failed to create error log sink", zap.Error(err))
	}

	retrier := monitor.NewRetrier(
		cfg.Retry.MaxRetries,
		cfg.Retry.InitialDelay,
		cfg.Retry.MaxDelay,
		cfg.Retry.BackoffFactor,
		errlog,
		logger.Named("retry"),
	)

	session := monitor.NewSessionManager(cfg.Credentials, cfg.Selectors, retrier, postLoginSettle, logger.Named("session"))
	extractor := monitor.NewExtractor(loginURL, statusURL, cfg.Selectors, session, retrier,
		cfg.Files.Dir, cfg.Files.HTMLPrefix, logger.Named("extractor"))
	alerter := monitor.NewAlerter(cfg.Alerts, logger.Named("alerts"))
	obsStore := monitor.NewObservationStore(db.DB())
	drv := browser.New(cfg.Browser, logger.Named("browser"))

	probe, err := monitor.NewReachabilityProbe(cfg.Target.BaseURL, 3*time.Second, logger.Named("probe"))
	if err != nil {
		logger.Warn("reachability probe disabled", zap.Error(err))
		probe = nil
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	m := monitor.NewMonitor(cfg, drv, extractor, alerter, obsStore, errlog, probe, logger.Named("monitor"))
	if err := m.Run(ctx); err != nil {
		logger.Fatal("monitor error", zap.Error(err))
	}

	logger.Info("radio monitor stopped")
}
