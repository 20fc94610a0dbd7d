// Package app provides the top-level application lifecycle management for
// the arbitrage tracker. It wires together all dependencies (stores, cache,
// blob storage, notifications), builds the pipeline components, and runs
// them under a single errgroup until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/aggregator"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/arbitrage"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/config"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/exchange"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/scheduler"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/server"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/server/handler"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/server/ws"
)

// shutdownGrace is how long in-flight HTTP requests get to finish once the
// run context is cancelled.
const shutdownGrace = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the hub, scheduler, archiver, and HTTP
// server, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Any("symbols", a.cfg.Fetch.Symbols),
		slog.Duration("interval", a.cfg.FetchInterval()),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	exchanges := []exchange.Exchange{
		exchange.NewBinance(""),
		exchange.NewCoinbase(""),
		exchange.NewKraken(""),
	}

	agg := aggregator.New(exchanges, a.cfg.Fetch.Symbols, a.cfg.CycleTimeout(), a.logger)
	detector := arbitrage.NewDetector(arbitrage.DetectorConfig{
		ThresholdPercent: a.cfg.Arbitrage.ThresholdPercent,
		ProfitFraction:   a.cfg.Arbitrage.ProfitFraction,
	})
	hub := ws.NewHub(a.logger)

	var notifier scheduler.Notifier
	if deps.Notifier != nil {
		notifier = deps.Notifier
	}
	sched := scheduler.New(scheduler.Config{
		Collector:           agg,
		Detector:            detector,
		PriceStore:          deps.PriceStore,
		OppStore:            deps.OppStore,
		PriceCache:          deps.PriceCache,
		Hub:                 hub,
		Notifier:            notifier,
		Interval:            a.cfg.FetchInterval(),
		MaxConcurrentCycles: a.cfg.Arbitrage.MaxConcurrentCycles,
		Logger:              a.logger,
	})

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Prices:    handler.NewPriceHandler(deps.PriceStore, a.logger).WithCache(deps.PriceCache),
		Arbitrage: handler.NewArbitrageHandler(deps.OppStore, a.logger),
	}
	srv := server.New(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration(),
	}, handlers, hub, deps.RateLimiter, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := hub.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	})

	g.Go(func() error {
		err := sched.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("scheduler: %w", err)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			err := deps.Archiver.Run(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
