package domain

import (
	"context"
	"time"
)

// PriceStore persists price samples. InsertBatch must be atomic with respect
// to concurrent readers: either all of a cycle's samples become visible or
// none of them do.
type PriceStore interface {
	InsertBatch(ctx context.Context, samples []PriceSample) error
	ListRecent(ctx context.Context, limit int) ([]PriceSample, error)

	// ListBefore and DeleteBefore support cold-storage archival of old
	// samples.
	ListBefore(ctx context.Context, cutoff time.Time) ([]PriceSample, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// OpportunityStore persists detected arbitrage opportunities.
type OpportunityStore interface {
	InsertBatch(ctx context.Context, opps []Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}
