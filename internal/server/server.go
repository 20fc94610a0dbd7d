// Package server provides the HTTP and WebSocket API for the arbitrage
// tracker: read-side history endpoints plus the two live subscription
// endpoints served by the ws hub.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/server/handler"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/server/middleware"
	"github.com/I-am-Carbon/Crypto-Arbitrage-Tracker/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client IP per RateLimitWindow. Zero
	// disables rate limiting.
	RateLimit       int
	RateLimitWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Prices    *handler.PriceHandler
	Arbitrage *handler.ArbitrageHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes registered, wiring up the middleware
// chain (rate limiting, auth, request logging, CORS) and the WebSocket hub.
func New(cfg Config, handlers Handlers, hub *ws.Hub, limiter middleware.Limiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/prices/history", handlers.Prices.History)
	mux.HandleFunc("GET /api/prices/latest", handlers.Prices.Latest)
	mux.HandleFunc("GET /api/arbitrage/history", handlers.Arbitrage.History)

	if hub != nil {
		mux.HandleFunc("GET /ws/prices", hub.HandlePrices)
		mux.HandleFunc("GET /ws/arbitrage", hub.HandleArbitrage)
	}

	var h http.Handler = mux
	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Second
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
