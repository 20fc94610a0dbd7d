// Package scheduler drives the acquisition cycles: on a fixed interval it
// aggregates prices, persists and broadcasts them, runs opportunity
// detection, and persists and broadcasts any findings. Overlapping cycles
// are tolerated up to a bounded ceiling; ticks beyond the ceiling are
// skipped rather than queued.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// Collector produces one cycle's best-effort snapshot of price samples.
type Collector interface {
	Collect(ctx context.Context) []domain.PriceSample
}

// Detector finds opportunities within one cycle's samples.
type Detector interface {
	Detect(samples []domain.PriceSample) []domain.Opportunity
}

// Broadcaster fans a message out to the live subscribers of one channel.
type Broadcaster interface {
	Broadcast(channel string, data []byte)
}

// Notifier delivers operator alerts for detected opportunities.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Channel names the Broadcaster is invoked with.
const (
	ChannelPrices    = "prices"
	ChannelArbitrage = "arbitrage"
)

// Broadcast envelope types.
const (
	typePriceUpdate     = "price_update"
	typeArbitrageSignal = "arbitrage_signal"
)

// Scheduler owns the cycle timer and the in-flight cycle ceiling. The
// semaphore is the only state shared between concurrent cycles.
type Scheduler struct {
	collector  Collector
	detector   Detector
	priceStore domain.PriceStore
	oppStore   domain.OpportunityStore
	priceCache domain.PriceCache
	hub        Broadcaster
	notifier   Notifier

	interval time.Duration
	slots    *semaphore.Weighted
	logger   *slog.Logger
}

// Config bundles the scheduler's collaborators and tuning parameters.
// PriceCache and Notifier are optional; a nil value disables that step.
type Config struct {
	Collector  Collector
	Detector   Detector
	PriceStore domain.PriceStore
	OppStore   domain.OpportunityStore
	PriceCache domain.PriceCache
	Hub        Broadcaster
	Notifier   Notifier

	// Interval is the fixed wall-clock period between cycle starts.
	Interval time.Duration
	// MaxConcurrentCycles caps overlapping cycles; must be positive.
	MaxConcurrentCycles int
	Logger              *slog.Logger
}

// New creates a Scheduler from the given configuration.
func New(cfg Config) *Scheduler {
	maxCycles := cfg.MaxConcurrentCycles
	if maxCycles <= 0 {
		maxCycles = 1
	}
	return &Scheduler{
		collector:  cfg.Collector,
		detector:   cfg.Detector,
		priceStore: cfg.PriceStore,
		oppStore:   cfg.OppStore,
		priceCache: cfg.PriceCache,
		hub:        cfg.Hub,
		notifier:   cfg.Notifier,
		interval:   cfg.Interval,
		slots:      semaphore.NewWeighted(int64(maxCycles)),
		logger:     cfg.Logger.With(slog.String("component", "scheduler")),
	}
}

// Run starts the ticker loop and blocks until ctx is cancelled. The first
// cycle fires immediately. No fault inside a cycle can reach this loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "scheduler started",
		slog.Duration("interval", s.interval),
	)
	defer s.logger.Info("scheduler stopped")

	s.dispatch(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.dispatch(ctx)
		}
	}
}

// dispatch starts one cycle in its own goroutine if a slot is free; the tick
// is skipped otherwise, bounding memory under sustained slow cycles.
func (s *Scheduler) dispatch(ctx context.Context) {
	if !s.slots.TryAcquire(1) {
		s.logger.Warn("cycle ceiling reached, skipping tick")
		return
	}
	go func() {
		defer s.slots.Release(1)
		s.runCycle(ctx)
	}()
}

// runCycle executes one full acquisition cycle. Panics are recovered so a
// cycle fault aborts only the remainder of that cycle's steps.
func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("cycle panicked",
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	start := time.Now()
	samples := s.collector.Collect(ctx)
	if len(samples) == 0 {
		s.logger.Debug("cycle collected no samples")
		return
	}

	if err := s.priceStore.InsertBatch(ctx, samples); err != nil {
		// Storage fault: the samples were not durably recorded, so they
		// are not advertised to subscribers either.
		s.logger.Error("persist price samples failed",
			slog.Int("samples", len(samples)),
			slog.String("error", err.Error()),
		)
	} else {
		s.broadcast(ChannelPrices, typePriceUpdate, samples)
	}

	s.updateCache(ctx, samples)

	opps := s.detector.Detect(samples)
	if len(opps) == 0 {
		s.logger.Debug("cycle complete",
			slog.Int("samples", len(samples)),
			slog.Duration("elapsed", time.Since(start)),
		)
		return
	}

	if err := s.oppStore.InsertBatch(ctx, opps); err != nil {
		s.logger.Error("persist opportunities failed",
			slog.Int("opportunities", len(opps)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.broadcast(ChannelArbitrage, typeArbitrageSignal, opps)
	s.alert(ctx, opps)

	s.logger.Info("cycle complete",
		slog.Int("samples", len(samples)),
		slog.Int("opportunities", len(opps)),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// broadcast wraps data in the wire envelope and fans it out. Persistence of
// the records always happens before the corresponding broadcast.
func (s *Scheduler) broadcast(channel, msgType string, data any) {
	payload, err := json.Marshal(map[string]any{
		"type":      msgType,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.Error("marshal broadcast envelope failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	s.hub.Broadcast(channel, payload)
}

// updateCache writes the latest observed prices to the cache. Cache faults
// never fail a cycle.
func (s *Scheduler) updateCache(ctx context.Context, samples []domain.PriceSample) {
	if s.priceCache == nil {
		return
	}
	for _, sample := range samples {
		if err := s.priceCache.SetPrice(ctx, sample); err != nil {
			s.logger.Warn("cache price update failed",
				slog.String("exchange", sample.Exchange),
				slog.String("symbol", sample.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}
}

// alert sends a single operator notification summarizing the cycle's
// detected opportunities.
func (s *Scheduler) alert(ctx context.Context, opps []domain.Opportunity) {
	if s.notifier == nil {
		return
	}
	top := opps[0]
	for _, o := range opps[1:] {
		if o.SpreadPercent > top.SpreadPercent {
			top = o
		}
	}
	msg := fmt.Sprintf("%d opportunity(ies) detected. Best: %s buy %s @ %.2f, sell %s @ %.2f (spread %.2f%%)",
		len(opps), top.Symbol, top.BuyExchange, top.BuyPrice, top.SellExchange, top.SellPrice, top.SpreadPercent)
	if err := s.notifier.Notify(ctx, "arbitrage_signal", "Arbitrage opportunity", msg); err != nil {
		s.logger.Warn("notify failed", slog.String("error", err.Error()))
	}
}
