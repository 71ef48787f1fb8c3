package main

import (
	"context"
	"fmt"
	"log"

	"StockPulse/internal/analytics"
	"StockPulse/internal/catalog"
	"StockPulse/internal/collector"
	"StockPulse/internal/config"
	"StockPulse/internal/enricher"
	"StockPulse/internal/notifier"
	"StockPulse/internal/scheduler"
	"StockPulse/internal/series"
	"StockPulse/internal/store"
)

// app bundles the wired services shared by every subcommand.
type app struct {
	cfg       *config.Config
	store     store.Store
	series    *series.Service
	analytics *analytics.Service
	telegram  *notifier.TelegramNotifier
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	cat := catalog.Default()
	if len(cfg.Catalog) > 0 {
		cat = catalog.New(cfg.Catalog)
	}
	log.Printf("[INFO] catalog: %d symbols", len(cat.Symbols()))

	fetcher := newFetcher(cfg)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	st, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Printf("[WARN] open store failed, using in-memory store: %v", err)
		st = store.NewMemoryStore()
	}

	seriesSvc := series.NewService(cat, collector.NewCollector(fetcher, cat), enricher.New(), st, series.Options{
		RefreshPeriod:  cfg.Data.DefaultPeriod,
		CompareMinRows: cfg.Data.CompareMinRows,
	})

	a := &app{
		cfg:       cfg,
		store:     st,
		series:    seriesSvc,
		analytics: analytics.NewService(seriesSvc),
	}
	if cfg.TelegramEnabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}
	return a, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "priceservice":
		return collector.NewPriceServiceFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateLimit)
	case "mock":
		return &collector.MockFetcher{Price: 1000}
	default:
		return collector.NewYahooFetcher(cfg.Proxy, collector.WithYahooRateLimit(cfg.DataSource.RateLimit))
	}
}

// newScheduler builds the warm scheduler, sending digests to Telegram when configured.
func (a *app) newScheduler(ctx context.Context) *scheduler.Scheduler {
	var sender scheduler.Sender
	if a.telegram != nil {
		sender = a.telegram
	}
	return scheduler.NewScheduler(ctx, a.series, a.analytics, sender, a.cfg.Schedule.WarmDays)
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close store: %v", err)
	}
}
