package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

type stubPriceStore struct {
	samples   []domain.PriceSample
	err       error
	lastLimit int
}

func (s *stubPriceStore) InsertBatch(ctx context.Context, samples []domain.PriceSample) error {
	return nil
}

func (s *stubPriceStore) ListRecent(ctx context.Context, limit int) ([]domain.PriceSample, error) {
	s.lastLimit = limit
	return s.samples, s.err
}

func (s *stubPriceStore) ListBefore(ctx context.Context, cutoff time.Time) ([]domain.PriceSample, error) {
	return nil, nil
}

func (s *stubPriceStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubOppStore struct {
	opps []domain.Opportunity
	err  error
}

func (s *stubOppStore) InsertBatch(ctx context.Context, opps []domain.Opportunity) error {
	return nil
}

func (s *stubOppStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	return s.opps, s.err
}

type stubCache struct {
	samples []domain.PriceSample
	err     error
}

func (s *stubCache) SetPrice(ctx context.Context, sample domain.PriceSample) error { return nil }

func (s *stubCache) GetPrice(ctx context.Context, exchange, symbol string) (domain.PriceSample, error) {
	return domain.PriceSample{}, domain.ErrNotFound
}

func (s *stubCache) GetAll(ctx context.Context) ([]domain.PriceSample, error) {
	return s.samples, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(testLogger())
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
}

func TestPriceHistory(t *testing.T) {
	store := &stubPriceStore{samples: []domain.PriceSample{
		{Exchange: "Binance", Symbol: "BTCUSDT", Price: 50000, ObservedAt: time.Now().UTC()},
	}}
	h := NewPriceHandler(store, testLogger())
	rec := httptest.NewRecorder()

	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/prices/history?limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.lastLimit != 5 {
		t.Errorf("limit passed to store = %d, want 5", store.lastLimit)
	}
	var body listPricesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(body.Prices) != 1 || body.Prices[0].Exchange != "Binance" {
		t.Errorf("unexpected payload: %+v", body)
	}
}

func TestPriceHistory_LimitDefaultsAndCap(t *testing.T) {
	store := &stubPriceStore{}
	h := NewPriceHandler(store, testLogger())

	h.History(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/prices/history", nil))
	if store.lastLimit != 100 {
		t.Errorf("default limit = %d, want 100", store.lastLimit)
	}

	h.History(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/prices/history?limit=99999", nil))
	if store.lastLimit != 1000 {
		t.Errorf("capped limit = %d, want 1000", store.lastLimit)
	}
}

func TestPriceHistory_StoreFault(t *testing.T) {
	h := NewPriceHandler(&stubPriceStore{err: errors.New("db down")}, testLogger())
	rec := httptest.NewRecorder()

	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/prices/history", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestPriceHistory_EmptyIsJSONArray(t *testing.T) {
	h := NewPriceHandler(&stubPriceStore{}, testLogger())
	rec := httptest.NewRecorder()

	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/prices/history", nil))

	var body listPricesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Prices == nil {
		t.Error("empty history should serialize as [], not null")
	}
}

func TestPriceLatest(t *testing.T) {
	cache := &stubCache{samples: []domain.PriceSample{
		{Exchange: "Kraken", Symbol: "ETHUSDT", Price: 3000, ObservedAt: time.Now().UTC()},
	}}
	h := NewPriceHandler(&stubPriceStore{}, testLogger()).WithCache(cache)
	rec := httptest.NewRecorder()

	h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/prices/latest", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body listPricesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(body.Prices) != 1 || body.Prices[0].Exchange != "Kraken" {
		t.Errorf("unexpected payload: %+v", body)
	}
}

func TestPriceLatest_NoCacheConfigured(t *testing.T) {
	h := NewPriceHandler(&stubPriceStore{}, testLogger())
	rec := httptest.NewRecorder()

	h.Latest(rec, httptest.NewRequest(http.MethodGet, "/api/prices/latest", nil))

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
}

func TestArbitrageHistory(t *testing.T) {
	store := &stubOppStore{opps: []domain.Opportunity{{
		ID:           "opp-1",
		Symbol:       "BTCUSDT",
		BuyExchange:  "Binance",
		SellExchange: "Coinbase",
		DetectedAt:   time.Now().UTC(),
	}}}
	h := NewArbitrageHandler(store, testLogger())
	rec := httptest.NewRecorder()

	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage/history", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body listOpportunitiesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if len(body.Opportunities) != 1 || body.Opportunities[0].ID != "opp-1" {
		t.Errorf("unexpected payload: %+v", body)
	}
}

func TestArbitrageHistory_StoreFault(t *testing.T) {
	h := NewArbitrageHandler(&stubOppStore{err: errors.New("db down")}, testLogger())
	rec := httptest.NewRecorder()

	h.History(rec, httptest.NewRequest(http.MethodGet, "/api/arbitrage/history", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
