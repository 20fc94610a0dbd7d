// Package exchange implements spot-price adapters for the supported
// exchanges. Each adapter normalizes one exchange's quote API behind the
// Exchange interface, translating canonical symbols to the exchange's
// native spelling and absorbing parse/transport failures at its boundary.
package exchange

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// Exchange is the uniform capability implemented by every price adapter.
// Fetch issues exactly one outbound request per call and never retries; any
// transport error, non-success status, or malformed response is returned as
// an error for the caller to treat as an absent observation.
type Exchange interface {
	// Name returns the exchange identifier recorded in price samples.
	Name() string
	// Fetch obtains the current spot price for the given canonical symbol.
	Fetch(ctx context.Context, symbol string) (domain.PriceSample, error)
}

// defaultHTTPTimeout is the hard cap on a single quote request. The per-call
// deadline is normally tighter and comes from the caller's context.
const defaultHTTPTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// doGet performs a GET request against url with the given context and returns
// the response body. Non-2xx statuses are errors.
func doGet(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}

// translate maps a canonical symbol to the exchange's native spelling.
// Unmapped symbols pass through unchanged.
func translate(symbolMap map[string]string, symbol string) string {
	if native, ok := symbolMap[symbol]; ok {
		return native
	}
	return symbol
}
