// Package api provides the HTTP REST API server for TradeGauge.
//
// It exposes endpoints for contract reviews, quotes, strike and expiry
// lookups, event calendars, share tokens, and WebSocket spot streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Phainsworth/tradegauge-site/internal/config"
	"github.com/Phainsworth/tradegauge-site/internal/engine"
	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// Reviewer is the analysis surface the server exposes. The engine
// satisfies it; tests use fakes.
type Reviewer interface {
	Analyze(ctx context.Context, req engine.AnalyzeRequest) (*engine.Report, error)
	StrikeView(ctx context.Context, ticker, expiry string, kind models.OptionKind, spot, current *float64) ([]float64, error)
	Expirations(ctx context.Context, ticker string) ([]string, error)
	Search(ctx context.Context, query string) ([]models.Symbol, error)
	EventOutlook(ctx context.Context, ticker string) (*models.EventContext, []models.DangerWindow, error)
	Spot(ctx context.Context, ticker string) (*models.SpotQuote, error)
	Session() *engine.Session
}

// Server is the HTTP API server.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	eng       Reviewer
	providers func() map[string]bool
	wsHub     *WSHub
	streams   *spotStreams
	log       zerolog.Logger
	version   string
}

// NewServer creates a configured API server with all routes and middleware.
// providers reports which market data sources are credentialed; it may be nil.
func NewServer(cfg *config.Config, eng Reviewer, providers func() map[string]bool, version string, log zerolog.Logger) *Server {
	hub := NewWSHub()
	srv := &Server{
		cfg:       cfg,
		eng:       eng,
		providers: providers,
		wsHub:     hub,
		log:       log,
		version:   version,
	}
	srv.streams = newSpotStreams(hub, eng.Spot, cfg.Sync, log)
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	<-done
	s.log.Info().Msg("shutting down server")
	s.streams.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Contract review
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/report/last", s.handleLastReport)

		// Quotes
		r.Get("/quote/{ticker}", s.handleQuote)

		// Contract pickers
		r.Get("/expirations/{ticker}", s.handleExpirations)
		r.Get("/strikes/{ticker}", s.handleStrikes)

		// Event calendar
		r.Get("/events/{ticker}", s.handleEvents)

		// Ticker search
		r.Get("/search/tickers", s.handleSearchTickers)

		// Share tokens
		r.Post("/state/encode", s.handleEncodeState)
		r.Get("/state/decode", s.handleDecodeState)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)
		r.Get("/providers", s.handleProviders)

		// WebSocket spot streaming
		r.Get("/ws", s.handleWebSocket)
		r.Get("/ws/spot", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Ticker       string   `json:"ticker"`
	Kind         string   `json:"kind"` // "CALL" or "PUT"
	Strike       float64  `json:"strike"`
	Expiry       string   `json:"expiry,omitempty"`     // YYYY-MM-DD; empty picks the nearest
	PricePaid    string   `json:"price_paid,omitempty"` // raw input, normalized server-side
	SpotOverride *float64 `json:"spot_override,omitempty"`
	Owns         bool     `json:"owns,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	kind, ok := parseKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be CALL or PUT")
		return
	}
	if req.Strike <= 0 {
		writeError(w, http.StatusBadRequest, "strike must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	report, err := s.eng.Analyze(ctx, engine.AnalyzeRequest{
		Ticker:       req.Ticker,
		Kind:         kind,
		Strike:       req.Strike,
		Expiry:       req.Expiry,
		PricePaid:    req.PricePaid,
		SpotOverride: req.SpotOverride,
		OwnsPosition: req.Owns,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Broadcast to WebSocket subscribers watching this ticker
	s.wsHub.BroadcastTicker(report.Contract.Ticker, WSMessage{
		Type: "analysis_complete",
		Data: map[string]interface{}{
			"ticker": report.Contract.Ticker,
			"score":  report.Score.Score,
			"bucket": report.Score.Bucket,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

func (s *Server) handleLastReport(w http.ResponseWriter, r *http.Request) {
	session := s.eng.Session()
	if session == nil {
		writeError(w, http.StatusNotFound, "no completed review yet")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    session,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.eng.Spot(ctx, strings.ToUpper(ticker))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    quote,
	})
}

func (s *Server) handleExpirations(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	expirations, err := s.eng.Expirations(ctx, strings.ToUpper(ticker))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    expirations,
	})
}

func (s *Server) handleStrikes(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	expiry := r.URL.Query().Get("expiry")
	if ticker == "" || expiry == "" {
		writeError(w, http.StatusBadRequest, "ticker and expiry are required")
		return
	}
	kind, ok := parseKind(r.URL.Query().Get("kind"))
	if !ok {
		writeError(w, http.StatusBadRequest, "kind must be CALL or PUT")
		return
	}

	spot := queryFloat(r, "spot")
	current := queryFloat(r, "current")

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	strikes, err := s.eng.StrikeView(ctx, strings.ToUpper(ticker), expiry, kind, spot, current)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    strikes,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	evctx, windows, err := s.eng.EventOutlook(ctx, strings.ToUpper(ticker))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"events":         evctx,
			"danger_windows": windows,
		},
	})
}

func (s *Server) handleSearchTickers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	symbols, err := s.eng.Search(ctx, query)
	if err != nil {
		if errors.Is(err, engine.ErrSuperseded) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    symbols,
	})
}

func (s *Server) handleEncodeState(w http.ResponseWriter, r *http.Request) {
	var state models.TradeState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := engine.EncodeTradeState(state)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    map[string]string{"token": token},
	})
}

func (s *Server) handleDecodeState(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("t")
	if token == "" {
		writeError(w, http.StatusBadRequest, "t is required")
		return
	}

	state, err := engine.DecodeTradeState(token)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    state,
	})
}

// ============================================================
// Helpers
// ============================================================

func parseKind(raw string) (models.OptionKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CALL", "C":
		return models.Call, true
	case "PUT", "P":
		return models.Put, true
	default:
		return "", false
	}
}

func queryFloat(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
