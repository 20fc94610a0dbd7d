// Package aggregator drives the exchange adapters over the configured symbol
// set for one acquisition cycle, collecting whatever subset of prices
// succeeds within the cycle's wall-clock budget.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/exchange"
)

// Aggregator polls every (exchange, symbol) pair in parallel. A pair's
// failure is independent: it degrades the cycle's coverage but never blocks
// or fails the other pairs, and the cycle's latency is bounded by the
// configured timeout no matter how many adapters stall.
type Aggregator struct {
	exchanges []exchange.Exchange
	symbols   []string
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates an Aggregator over the given adapters and canonical symbols.
func New(exchanges []exchange.Exchange, symbols []string, timeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		exchanges: exchanges,
		symbols:   symbols,
		timeout:   timeout,
		logger:    logger.With(slog.String("component", "aggregator")),
	}
}

// Collect fans out one fetch per (exchange, symbol) pair and returns every
// sample obtained before the budget expires. An empty result is valid and
// simply yields a no-op cycle downstream. Samples from different adapters
// are concurrent and carry no ordering guarantee.
func (a *Aggregator) Collect(ctx context.Context) []domain.PriceSample {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		samples []domain.PriceSample
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, ex := range a.exchanges {
		for _, symbol := range a.symbols {
			ex, symbol := ex, symbol
			g.Go(func() error {
				sample, err := ex.Fetch(ctx, symbol)
				if err != nil {
					// Source fault: absorbed here, the pair simply
					// contributes nothing to this cycle.
					a.logger.Debug("fetch failed",
						slog.String("exchange", ex.Name()),
						slog.String("symbol", symbol),
						slog.String("error", err.Error()),
					)
					return nil
				}
				mu.Lock()
				samples = append(samples, sample)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	return samples
}
