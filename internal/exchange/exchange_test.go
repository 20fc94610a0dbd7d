package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBinanceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol query = %q, want BTCUSDT", got)
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"50123.45"}`))
	}))
	defer srv.Close()

	sample, err := NewBinance(srv.URL).Fetch(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sample.Exchange != "Binance" || sample.Symbol != "BTCUSDT" {
		t.Errorf("wrong labels: %+v", sample)
	}
	if sample.Price != 50123.45 {
		t.Errorf("price = %g, want 50123.45", sample.Price)
	}
	if sample.ObservedAt.IsZero() {
		t.Error("observed-at timestamp not set")
	}
}

func TestBinanceFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewBinance(srv.URL).Fetch(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestBinanceFetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if _, err := NewBinance(srv.URL).Fetch(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected error on malformed body")
	}
}

func TestBinanceFetch_NonPositivePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"0"}`))
	}))
	defer srv.Close()

	if _, err := NewBinance(srv.URL).Fetch(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected error on zero price")
	}
}

func TestCoinbaseFetch_TranslatesSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/prices/BTC-USD/spot" {
			t.Errorf("unexpected path %s, want the native pair spelling", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"amount":"50200.10","currency":"USD"}}`))
	}))
	defer srv.Close()

	sample, err := NewCoinbase(srv.URL).Fetch(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// The sample keeps the canonical symbol, not the native one.
	if sample.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q, want canonical BTCUSDT", sample.Symbol)
	}
	if sample.Price != 50200.10 {
		t.Errorf("price = %g, want 50200.10", sample.Price)
	}
}

func TestCoinbaseFetch_MissingAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"currency":"USD"}}`))
	}))
	defer srv.Close()

	if _, err := NewCoinbase(srv.URL).Fetch(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected error on missing amount")
	}
}

func TestKrakenFetch_TranslatesSymbolAndReadsClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("pair"); got != "XBTUSDT" {
			t.Errorf("pair query = %q, want XBTUSDT", got)
		}
		w.Write([]byte(`{"error":[],"result":{"XBTUSDT":{"c":["50150.00","0.5"]}}}`))
	}))
	defer srv.Close()

	sample, err := NewKraken(srv.URL).Fetch(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sample.Exchange != "Kraken" || sample.Symbol != "BTCUSDT" {
		t.Errorf("wrong labels: %+v", sample)
	}
	if sample.Price != 50150.00 {
		t.Errorf("price = %g, want 50150.00", sample.Price)
	}
}

func TestKrakenFetch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":["EQuery:Unknown asset pair"],"result":{}}`))
	}))
	defer srv.Close()

	if _, err := NewKraken(srv.URL).Fetch(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected error from the error array")
	}
}

func TestKrakenFetch_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":[],"result":{}}`))
	}))
	defer srv.Close()

	if _, err := NewKraken(srv.URL).Fetch(context.Background(), "BTCUSDT"); err == nil {
		t.Fatal("expected error on empty result map")
	}
}

func TestTranslate_PassThroughForUnmappedSymbols(t *testing.T) {
	m := map[string]string{"BTCUSDT": "XBTUSDT"}
	if got := translate(m, "BTCUSDT"); got != "XBTUSDT" {
		t.Errorf("translate mapped = %q, want XBTUSDT", got)
	}
	if got := translate(m, "SOLUSDT"); got != "SOLUSDT" {
		t.Errorf("translate unmapped = %q, want pass-through", got)
	}
}
