package domain

import "time"

// Opportunity is a detected cross-exchange price discrepancy for one symbol
// within a single acquisition cycle. BuyExchange is the minimum-price source
// and SellExchange the maximum-price source, so BuyPrice <= SellPrice always
// holds. Opportunities are created once and never mutated.
type Opportunity struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	BuyExchange     string    `json:"buy_exchange"`
	SellExchange    string    `json:"sell_exchange"`
	BuyPrice        float64   `json:"buy_price"`
	SellPrice       float64   `json:"sell_price"`
	SpreadPercent   float64   `json:"spread_percent"`
	PotentialProfit float64   `json:"potential_profit"`
	DetectedAt      time.Time `json:"detected_at"`
}
