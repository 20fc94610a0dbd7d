package handler

import (
	"log/slog"
	"net/http"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/domain"
)

// ArbitrageHandler serves the arbitrage history endpoint.
type ArbitrageHandler struct {
	store  domain.OpportunityStore
	logger *slog.Logger
}

// NewArbitrageHandler creates an ArbitrageHandler with the given store and
// logger.
func NewArbitrageHandler(store domain.OpportunityStore, logger *slog.Logger) *ArbitrageHandler {
	return &ArbitrageHandler{store: store, logger: logger}
}

// listOpportunitiesResponse wraps the arbitrage history response.
type listOpportunitiesResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// History returns the most recent detected opportunities.
// GET /api/arbitrage/history?limit=100
func (h *ArbitrageHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100, 1000)

	opps, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list arbitrage history failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list arbitrage history")
		return
	}

	if opps == nil {
		opps = []domain.Opportunity{}
	}
	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: opps})
}
