// Package arbitrage implements cross-exchange opportunity detection over the
// price samples collected within one acquisition cycle.
package arbitrage

import (
	"time"

	"github.com/google/uuid"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// Detector finds cross-exchange price discrepancies above a configured
// spread threshold. Detection is pure and deterministic for a given sample
// set (ignoring generated IDs and timestamps): it performs no I/O and holds
// no state between calls.
type Detector struct {
	thresholdPercent float64
	profitFraction   float64
	now              func() time.Time
	newID            func() string
}

// DetectorConfig configures the detector. A zero Now or NewID falls back to
// time.Now and uuid.NewString.
type DetectorConfig struct {
	// ThresholdPercent is the minimum spread, in percent of the buy price,
	// for an opportunity to be emitted.
	ThresholdPercent float64
	// ProfitFraction scales the absolute price delta into the reported
	// potential profit. A stand-in for a position-sizing model.
	ProfitFraction float64
	Now            func() time.Time
	NewID          func() string
}

// NewDetector creates a Detector with the given thresholds.
func NewDetector(cfg DetectorConfig) *Detector {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Detector{
		thresholdPercent: cfg.ThresholdPercent,
		profitFraction:   cfg.ProfitFraction,
		now:              now,
		newID:            newID,
	}
}

// Detect groups samples by symbol and, for every symbol observed on at least
// two exchanges, compares the minimum-price and maximum-price samples. An
// opportunity is emitted iff the spread relative to the minimum price meets
// the threshold. When several samples share the extreme price the first one
// in arrival order wins; the tie-break is arbitrary and carries no meaning.
// Symbols with fewer than two samples are skipped. Output order follows the
// first appearance of each symbol in the input; callers must treat the
// result as a set.
func (d *Detector) Detect(samples []domain.PriceSample) []domain.Opportunity {
	grouped := make(map[string][]domain.PriceSample)
	var order []string
	for _, s := range samples {
		if _, seen := grouped[s.Symbol]; !seen {
			order = append(order, s.Symbol)
		}
		grouped[s.Symbol] = append(grouped[s.Symbol], s)
	}

	var opps []domain.Opportunity
	for _, symbol := range order {
		group := grouped[symbol]
		if len(group) < 2 {
			continue
		}

		low, high := group[0], group[0]
		for _, s := range group[1:] {
			if s.Price < low.Price {
				low = s
			}
			if s.Price > high.Price {
				high = s
			}
		}

		spread := (high.Price - low.Price) / low.Price * 100
		if spread < d.thresholdPercent {
			continue
		}

		opps = append(opps, domain.Opportunity{
			ID:              d.newID(),
			Symbol:          symbol,
			BuyExchange:     low.Exchange,
			SellExchange:    high.Exchange,
			BuyPrice:        low.Price,
			SellPrice:       high.Price,
			SpreadPercent:   spread,
			PotentialProfit: (high.Price - low.Price) * d.profitFraction,
			DetectedAt:      d.now(),
		})
	}

	return opps
}
