package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rmaia-dev/evradar/internal/config"
	"github.com/rmaia-dev/evradar/internal/export"
	"github.com/rmaia-dev/evradar/internal/feed"
	"github.com/rmaia-dev/evradar/internal/health"
	"github.com/rmaia-dev/evradar/internal/logger"
	"github.com/rmaia-dev/evradar/internal/radar"
	"github.com/rmaia-dev/evradar/internal/scheduler"
	"github.com/rmaia-dev/evradar/internal/storage"
	"github.com/rmaia-dev/evradar/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Local overrides (bot token etc.) before viper reads the environment.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.MaxMatches, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	seed, err := store.LoadLedger()
	if err != nil {
		logger.Warn("Failed to restore alert ledger: %v", err)
	} else if len(seed) > 0 {
		logger.Info("Restored %d alerted identities from storage", len(seed))
	}
	ledger := radar.NewLedger(seed)

	radarConfig := radar.Config{
		EnterThreshold:   cfg.Radar.EnterThreshold,
		DisplayThreshold: cfg.Radar.DisplayThreshold,
		OddsFloor:        cfg.Radar.OddsFloor,
		MaxGames:         cfg.Radar.MaxGames,
		BaselineContext:  cfg.Radar.BaselineContext,
		BaselineForm:     cfg.Radar.BaselineForm,
	}
	rdr := radar.New(ledger, radarConfig)

	filter := feed.Filter{
		Leagues:   cfg.Feed.Leagues,
		MinuteMin: cfg.Feed.MinuteMin,
		MinuteMax: cfg.Feed.MinuteMax,
	}
	var fetcher feed.Fetcher
	if cfg.Feed.Mode == "live" {
		fetcher = feed.NewHTTPFetcher(
			cfg.Feed.FeedURL,
			cfg.Feed.Timeout,
			cfg.Feed.MaxRetries,
			cfg.Feed.RetryDelayBase,
			cfg.Feed.Limit,
			filter,
		)
	} else {
		fetcher = feed.NewDemoFetcher(time.Now().UnixNano(), cfg.Feed.Limit, filter)
	}
	logger.Info("Feed mode: %s", cfg.Feed.Mode)

	var exporter scheduler.Exporter
	if cfg.Export.Enabled {
		exporter = export.NewCSVExporter(cfg.Export.FilePath)
	}

	var telegramClient *telegram.Client
	var notifier scheduler.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	metrics := health.NewMetrics()
	sched := scheduler.New(fetcher, rdr, store, exporter, notifier, metrics, cfg.Feed.PollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	var healthServer *health.Server
	if cfg.Health.Enabled {
		healthServer = health.NewServer(cfg.Health.ListenAddr, metrics, sched.Status)
		healthServer.Start()
	}

	if telegramClient != nil {
		telegramClient.SetStatusFunc(sched.StatusText)
		telegramClient.ListenForCommands(ctx)
	}

	logger.Info("Starting EV radar (interval: %v, enter: %d, display: %d, odds floor: %.2f, max games: %d)",
		cfg.Feed.PollInterval,
		cfg.Radar.EnterThreshold,
		cfg.Radar.DisplayThreshold,
		cfg.Radar.OddsFloor,
		cfg.Radar.MaxGames,
	)

	sched.Run(ctx)

	if healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Failed to shut down health server: %v", err)
		}
	}
	logger.Info("Service stopped")
}
