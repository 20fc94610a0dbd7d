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

// DefaultKrakenHost is the public Kraken REST API root.
const DefaultKrakenHost = "https://api.kraken.com"

// Kraken fetches spot prices from the Kraken public Ticker endpoint. Kraken
// keys its response by its own pair name, so the first entry of the result
// map holds the requested pair.
type Kraken struct {
	baseURL    string
	httpClient *http.Client
	symbolMap  map[string]string
}

// NewKraken creates a Kraken adapter. An empty baseURL selects the public
// API host.
func NewKraken(baseURL string) *Kraken {
	if baseURL == "" {
		baseURL = DefaultKrakenHost
	}
	return &Kraken{
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
		symbolMap: map[string]string{
			"BTCUSDT": "XBTUSDT",
			"ETHUSDT": "ETHUSDT",
		},
	}
}

// Name implements Exchange.
func (k *Kraken) Name() string { return "Kraken" }

// krakenTicker is the response shape of GET /0/public/Ticker. The "c" field
// holds [lastTradePrice, lastTradeVolume].
type krakenTicker struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		Close []string `json:"c"`
	} `json:"result"`
}

// Fetch implements Exchange.
func (k *Kraken) Fetch(ctx context.Context, symbol string) (domain.PriceSample, error) {
	native := translate(k.symbolMap, symbol)

	params := url.Values{}
	params.Set("pair", native)

	body, err := doGet(ctx, k.httpClient, k.baseURL+"/0/public/Ticker?"+params.Encode())
	if err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/kraken: fetch %s: %w", symbol, err)
	}

	var ticker krakenTicker
	if err := json.Unmarshal(body, &ticker); err != nil {
		return domain.PriceSample{}, fmt.Errorf("exchange/kraken: decode %s: %w", symbol, err)
	}
	if len(ticker.Error) > 0 {
		return domain.PriceSample{}, fmt.Errorf("exchange/kraken: api error for %s: %s", symbol, ticker.Error[0])
	}

	for _, pair := range ticker.Result {
		if len(pair.Close) == 0 {
			break
		}
		price, err := strconv.ParseFloat(pair.Close[0], 64)
		if err != nil {
			return domain.PriceSample{}, fmt.Errorf("exchange/kraken: parse price %q: %w", pair.Close[0], err)
		}
		if price <= 0 {
			return domain.PriceSample{}, fmt.Errorf("exchange/kraken: non-positive price %g for %s", price, symbol)
		}
		return domain.PriceSample{
			Exchange:   k.Name(),
			Symbol:     symbol,
			Price:      price,
			ObservedAt: time.Now().UTC(),
		}, nil
	}

	return domain.PriceSample{}, fmt.Errorf("exchange/kraken: empty result for %s", symbol)
}
