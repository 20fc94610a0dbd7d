// Package domain contains the core types shared across the arbitrage
// tracker: price samples, detected opportunities, and the store and cache
// interfaces their consumers depend on.
package domain

import "time"

// PriceSample is a single spot-price observation from one exchange.
// Samples are immutable once created.
type PriceSample struct {
	Exchange   string    `json:"exchange"`
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}
