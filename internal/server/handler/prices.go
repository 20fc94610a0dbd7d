package handler

import (
	"log/slog"
	"net/http"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// PriceHandler serves price history and latest-price endpoints.
type PriceHandler struct {
	store  domain.PriceStore
	cache  domain.PriceCache // optional; Latest returns 501 when nil
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler with the given store and logger.
func NewPriceHandler(store domain.PriceStore, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{store: store, logger: logger}
}

// WithCache sets the latest-price cache for the Latest endpoint.
func (h *PriceHandler) WithCache(cache domain.PriceCache) *PriceHandler {
	h.cache = cache
	return h
}

// listPricesResponse wraps the price history response.
type listPricesResponse struct {
	Prices []domain.PriceSample `json:"prices"`
}

// History returns the most recent price samples.
// GET /api/prices/history?limit=100
func (h *PriceHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100, 1000)

	samples, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list price history failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list price history")
		return
	}

	if samples == nil {
		samples = []domain.PriceSample{}
	}
	writeJSON(w, http.StatusOK, listPricesResponse{Prices: samples})
}

// Latest returns the latest observed price per exchange and symbol from the
// cache.
// GET /api/prices/latest
func (h *PriceHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusNotImplemented, "latest price cache not configured")
		return
	}

	samples, err := h.cache.GetAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get latest prices failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get latest prices")
		return
	}

	if samples == nil {
		samples = []domain.PriceSample{}
	}
	writeJSON(w, http.StatusOK, listPricesResponse{Prices: samples})
}
