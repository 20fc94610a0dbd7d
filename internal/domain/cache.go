package domain

import "context"

// PriceCache holds the most recent observed price per (exchange, symbol).
// Implementations return ErrNotFound when no price has been recorded yet.
type PriceCache interface {
	SetPrice(ctx context.Context, sample PriceSample) error
	GetPrice(ctx context.Context, exchange, symbol string) (PriceSample, error)
	GetAll(ctx context.Context) ([]PriceSample, error)
}
