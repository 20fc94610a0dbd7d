package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// indexKey tracks every price key ever written so GetAll can enumerate the
// (exchange, symbol) pairs without a SCAN.
const indexKey = "price:index"

// PriceCache implements domain.PriceCache using Redis hashes. The latest
// sample for each pair is stored at "price:{exchange}:{symbol}" with fields
// "price" and "ts" (Unix nanosecond timestamp).
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client. A zero ttl
// keeps entries forever.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: c.Underlying(), ttl: ttl}
}

func priceKey(exchange, symbol string) string {
	return "price:" + exchange + ":" + symbol
}

// SetPrice stores the latest observed price for the sample's pair.
func (pc *PriceCache) SetPrice(ctx context.Context, sample domain.PriceSample) error {
	key := priceKey(sample.Exchange, sample.Symbol)
	fields := map[string]interface{}{
		"exchange": sample.Exchange,
		"symbol":   sample.Symbol,
		"price":    strconv.FormatFloat(sample.Price, 'f', -1, 64),
		"ts":       strconv.FormatInt(sample.ObservedAt.UnixNano(), 10),
	}

	pipe := pc.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.SAdd(ctx, indexKey, key)
	if pc.ttl > 0 {
		pipe.Expire(ctx, key, pc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set price %s/%s: %w", sample.Exchange, sample.Symbol, err)
	}
	return nil
}

// GetPrice retrieves the latest observed price for a pair. It returns
// domain.ErrNotFound when no price has been recorded.
func (pc *PriceCache) GetPrice(ctx context.Context, exchange, symbol string) (domain.PriceSample, error) {
	vals, err := pc.rdb.HGetAll(ctx, priceKey(exchange, symbol)).Result()
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("redis: get price %s/%s: %w", exchange, symbol, err)
	}
	if len(vals) == 0 {
		return domain.PriceSample{}, domain.ErrNotFound
	}
	return sampleFromHash(vals)
}

// GetAll retrieves the latest observed price for every known pair using a
// pipeline. Expired entries are silently omitted.
func (pc *PriceCache) GetAll(ctx context.Context) ([]domain.PriceSample, error) {
	keys, err := pc.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list price keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := pc.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, pipe.HGetAll(ctx, key))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis: get all prices: %w", err)
	}

	samples := make([]domain.PriceSample, 0, len(keys))
	for _, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		sample, err := sampleFromHash(vals)
		if err != nil {
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func sampleFromHash(vals map[string]string) (domain.PriceSample, error) {
	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("redis: parse cached price %q: %w", vals["price"], err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("redis: parse cached ts %q: %w", vals["ts"], err)
	}
	return domain.PriceSample{
		Exchange:   vals["exchange"],
		Symbol:     vals["symbol"],
		Price:      price,
		ObservedAt: time.Unix(0, tsNano).UTC(),
	}, nil
}
