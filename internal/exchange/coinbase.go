package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// DefaultCoinbaseHost is the public Coinbase REST API root.
const DefaultCoinbaseHost = "https://api.coinbase.com"

// Coinbase fetches spot prices from the Coinbase v2 prices endpoint.
type Coinbase struct {
	baseURL    string
	httpClient *http.Client
	symbolMap  map[string]string
}

// NewCoinbase creates a Coinbase adapter. An empty baseURL selects the
// public API host.
func NewCoinbase(baseURL string) *Coinbase {
	if baseURL == "" {
		baseURL = DefaultCoinbaseHost
	}
	return &Coinbase{
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
		symbolMap: map[string]string{
			"BTCUSDT": "BTC-USD",
			"ETHUSDT": "ETH-USD",
		},
	}
}

// Name implements Exchange.
func (c *Coinbase) Name() string { return "Coinbase" }

// coinbaseSpot is the response shape of GET /v2/prices/{pair}/spot.
type coinbaseSpot struct {
	Data struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Fetch implements Exchange.
func (c *Coinbase) Fetch(ctx context.Context, symbol string) (domain.PriceSample, error) {
	native := translate(c.symbolMap, symbol)

	body, err := doGet(ctx, c.httpClient,
		c.baseURL+"/v2/prices/"+url.PathEscape(native)+"/spot")
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/coinbase: fetch %s: %w", symbol, err)
	}

	var spot coinbaseSpot
	if err := json.Unmarshal(body, &spot); err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/coinbase: decode %s: %w", symbol, err)
	}
	if spot.Data.Amount == "" {
		return domain.PriceSample{}, fmt.Errorf("exchange/coinbase: missing amount for %s", symbol)
	}

	price, err := strconv.ParseFloat(spot.Data.Amount, 64)
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/coinbase: parse price %q: %w", spot.Data.Amount, err)
	}
	if price <= 0 {
		return domain.PriceSample{}, fmt.Errorf("exchange/coinbase: non-positive price %g for %s", price, symbol)
	}

	return domain.PriceSample{
		Exchange:   c.Name(),
		Symbol:     symbol,
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}, nil
}
