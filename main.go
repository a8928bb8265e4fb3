package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tender-scraper/api"
	"tender-scraper/config"
	"tender-scraper/dedup"
	"tender-scraper/extractor"
	"tender-scraper/metrics"
	"tender-scraper/orchestrator"
	"tender-scraper/scraper"
	"tender-scraper/scraper/etender"
	"tender-scraper/scraper/itmarket"
	"tender-scraper/scraper/xarid"
	"tender-scraper/services"
	"tender-scraper/sinks"
	"tender-scraper/storage"
	"tender-scraper/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: %v", err)
	}

	logger.Info("=== Tender scraper starting ===")
	logger.Info("Config: every %v | max pages: %d | rate: %dms | headless: %v",
		cfg.SweepInterval, cfg.MaxPages, cfg.RateLimitMs, cfg.Headless)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewPostgresStore(ctx, cfg.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL: %v (is docker compose up?)", err)
	}
	defer store.Close()

	var seen dedup.SeenCache
	if cfg.RedisURL != "" {
		client, err := dedup.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL: %v", err)
		}
		defer client.Close()
		cache := dedup.NewRedisCache(client, cfg.SeenTTL)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, seen-cache disabled: %v", err)
		} else {
			seen = cache
		}
	}

	gate, err := dedup.NewGate(store, seen, cfg.RecentSize, logger)
	if err != nil {
		logger.Fatal("Failed to build dedup gate: %v", err)
	}

	m := metrics.New()

	var notifier sinks.Notifier
	if cfg.TelegramEnabled() {
		tg, err := sinks.NewTelegramNotifier(sinks.TelegramConfig{
			Token:     cfg.BotToken,
			ChatID:    cfg.AdminChannelID,
			Topics:    cfg.Topics,
			PhotoPath: cfg.PhotoPath,
			Client:    &http.Client{Timeout: 30 * time.Second},
		})
		if err != nil {
			logger.Error("Telegram disabled: %v", err)
		} else {
			notifier = tg
		}
	} else {
		logger.Warn("BOT_TOKEN or ADMIN_CHANNEL_ID not set, notifications disabled")
	}

	var sheet storage.SheetWriter
	if cfg.GoogleSheetsEnabled() {
		sheet, err = sinks.NewGoogleSheets(ctx, cfg.GoogleKeyPath, cfg.GoogleSheetID, logger)
		if err != nil {
			logger.Fatal("Failed to open Google Sheets: %v", err)
		}
	} else {
		sheet, err = storage.NewCSVSheets(cfg.CSVDir)
		if err != nil {
			logger.Fatal("Failed to create CSV directory: %v", err)
		}
		logger.Info("Spreadsheet rows go to %s", cfg.CSVDir)
	}

	fanout := sinks.NewFanout(sinks.FanoutConfig{
		Gate:       gate,
		Notifier:   notifier,
		Sheets:     sheet,
		SheetRetry: utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second},
		Metrics:    m,
		Logger:     logger,
	})

	rules := services.DefaultRules()
	if cfg.MinPrice > 0 {
		rules.MinPrice = cfg.MinPrice
	}
	if cfg.MinForeignPrice > 0 {
		rules.MinForeignPrice = cfg.MinForeignPrice
	}

	limits := scraper.DefaultLimits()
	limits.MaxPages = cfg.MaxPages
	limits.ListTimeout = cfg.ListTimeout
	limits.DetailTimeout = cfg.DetailTimeout

	deps := &scraper.Deps{
		Extractor: extractor.New(),
		Filter:    services.NewFilter(rules),
		Sink:      fanout,
		Pacer:     utils.NewPacer(time.Duration(cfg.RateLimitMs) * time.Millisecond),
		Metrics:   m,
		Logger:    logger,
		Limits:    limits,
	}

	it := itmarket.New(deps)
	it.NextSelector = cfg.ITMarketNext
	adapters := []scraper.Adapter{xarid.New(deps), etender.New(deps), it}

	browser := scraper.BrowserConfig{
		ChromeBin:   cfg.ChromeBin,
		Headless:    cfg.Headless,
		LoadTimeout: cfg.LoadTimeout,
	}
	newSession := func() (scraper.Session, error) {
		session, err := scraper.NewChromeSession(browser)
		if err != nil {
			return nil, err
		}
		return session, nil
	}

	var cooldown storage.Cooldown
	if cfg.MemcacheAddr != "" {
		cooldown = storage.NewMemcacheCooldown(cfg.MemcacheAddr)
	}

	orch := orchestrator.New(orchestrator.Config{
		Interval:      cfg.SweepInterval,
		CooldownAfter: cfg.CooldownAfter,
		CooldownFor:   cfg.CooldownFor,
	}, adapters, newSession, orchestrator.Deps{
		Cooldown: cooldown,
		Reports:  services.NewReportService(logger, os.Stdout),
		Metrics:  m,
		Logger:   logger,
	})

	var srv *http.Server
	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: api.NewRouter(api.Deps{
				Scheduler: orch,
				Counter:   store,
				Favorites: store,
				Registry:  m.Registry,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server stopped: %v", err)
			}
		}()
	}

	orch.Run(ctx)

	logger.Info("Shutting down gracefully...")
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown: %v", err)
		}
	}
}
