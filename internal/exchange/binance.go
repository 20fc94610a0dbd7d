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

// DefaultBinanceHost is the public Binance REST API root.
const DefaultBinanceHost = "https://api.binance.com"

// Binance fetches spot prices from the Binance ticker endpoint. Binance uses
// the canonical symbol spelling directly, so no translation table is needed.
type Binance struct {
	baseURL    string
	httpClient *http.Client
}

// NewBinance creates a Binance adapter. An empty baseURL selects the public
// API host.
func NewBinance(baseURL string) *Binance {
	if baseURL == "" {
		baseURL = DefaultBinanceHost
	}
	return &Binance{
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
	}
}

// Name implements Exchange.
func (b *Binance) Name() string { return "Binance" }

// binanceTicker is the response shape of GET /api/v3/ticker/price.
type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Fetch implements Exchange.
func (b *Binance) Fetch(ctx context.Context, symbol string) (domain.PriceSample, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := doGet(ctx, b.httpClient, b.baseURL+"/api/v3/ticker/price?"+params.Encode())
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/binance: fetch %s: %w", symbol, err)
	}

	var ticker binanceTicker
	if err := json.Unmarshal(body, &ticker); err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/binance: decode %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/binance: parse price %q: %w", ticker.Price, err)
	}
	if price <= 0 {
		return domain.PriceSample{}, fmt.Errorf("exchange/binance: non-positive price %g for %s", price, symbol)
	}

	return domain.PriceSample{
		Exchange:   b.Name(),
		Symbol:     symbol,
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}, nil
}
