// Package api exposes the scan and signal services over HTTP, plus a
// WebSocket alert feed, health, status and metrics endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"swaperex-scan/internal/domain"
	"swaperex-scan/internal/observability"
	"swaperex-scan/internal/scan"
	"swaperex-scan/internal/signal"
)

// Error codes returned to clients.
const (
	CodeUnsupportedChain = "UNSUPPORTED_CHAIN"
	CodeInvalidAddress   = "INVALID_ADDRESS"
	CodeScanFailed       = "SCAN_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeInternal         = "INTERNAL"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server routes HTTP traffic to the scan service and signal detectors.
type Server struct {
	scans     *scan.Service
	liquidity *signal.LiquidityDropDetector
	whales    *signal.WhaleDetector
	hub       *AlertHub
	logger    *log.Logger
	startedAt time.Time
}

// ServerOptions configures the API server.
type ServerOptions struct {
	Scans     *scan.Service
	Liquidity *signal.LiquidityDropDetector
	Whales    *signal.WhaleDetector
	Hub       *AlertHub
	Logger    *log.Logger
}

// NewServer creates the API server.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[api] ", log.LstdFlags)
	}
	return &Server{
		scans:     opts.Scans,
		liquidity: opts.Liquidity,
		whales:    opts.Whales,
		hub:       opts.Hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/scan", s.handleScan)
	mux.HandleFunc("GET /api/v1/signals/liquidity", s.handleLiquiditySignal)
	mux.HandleFunc("GET /api/v1/signals/whale", s.handleWhaleSignal)
	mux.HandleFunc("POST /api/v1/cache/clear", s.handleCacheClear)

	if s.hub != nil {
		mux.HandleFunc("GET /ws/alerts", s.hub.HandleWS)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

// handleScan serves GET /api/v1/scan?chainId=&wallet=&minUsd=. The legacy
// "address" parameter is accepted as an alias for "wallet"; minUsd is
// optional and defaults to the configured threshold.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	chainID, err := strconv.ParseInt(q.Get("chainId"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, "chainId must be an integer")
		return
	}
	wallet := q.Get("wallet")
	if wallet == "" {
		wallet = q.Get("address")
	}
	if wallet == "" {
		s.writeError(w, http.StatusBadRequest, CodeInvalidAddress, "wallet is required")
		return
	}

	var result *domain.ScanResult
	if raw := q.Get("minUsd"); raw != "" {
		minUsd, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, CodeBadRequest, "minUsd must be a number")
			return
		}
		result, err = s.scans.ScanWithMinValue(r.Context(), chainID, wallet, minUsd)
		if err != nil {
			s.writeScanError(w, err)
			return
		}
	} else {
		result, err = s.scans.Scan(r.Context(), chainID, wallet)
		if err != nil {
			s.writeScanError(w, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handleLiquiditySignal serves GET /api/v1/signals/liquidity?chainId=&token=.
func (s *Server) handleLiquiditySignal(w http.ResponseWriter, r *http.Request) {
	chainID, token, ok := s.signalParams(w, r)
	if !ok {
		return
	}

	sig, err := s.liquidity.Evaluate(r.Context(), chainID, token)
	if err != nil {
		s.writeSignalError(w, err)
		return
	}

	if sig != nil && s.hub != nil {
		s.hub.Publish(*sig)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"triggered": sig != nil,
		"signal":    sig,
	})
}

// handleWhaleSignal serves GET /api/v1/signals/whale?chainId=&token=.
func (s *Server) handleWhaleSignal(w http.ResponseWriter, r *http.Request) {
	chainID, token, ok := s.signalParams(w, r)
	if !ok {
		return
	}

	signals, err := s.whales.Evaluate(r.Context(), chainID, token)
	if err != nil {
		s.writeSignalError(w, err)
		return
	}

	if s.hub != nil {
		for _, sig := range signals {
			s.hub.Publish(sig)
		}
	}

	if signals == nil {
		signals = []domain.TokenSignal{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"triggered": len(signals) > 0,
		"signals":   signals,
	})
}

// handleCacheClear serves POST /api/v1/cache/clear.
func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	s.scans.ClearCache()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// statusResponse is the JSON response for the /status endpoint.
type statusResponse struct {
	Status       string   `json:"status"`
	Uptime       string   `json:"uptime"`
	Providers    []string `json:"providers"`
	Cache        any      `json:"cache"`
	AlertClients int      `json:"alertClients"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Status:    "running",
		Uptime:    time.Since(s.startedAt).String(),
		Providers: s.scans.Providers(),
		Cache:     s.scans.CacheStats(),
	}
	if s.hub != nil {
		resp.AlertClients = s.hub.ClientCount()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) signalParams(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	chainID, err := strconv.ParseInt(r.URL.Query().Get("chainId"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, "chainId must be an integer")
		return 0, "", false
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		s.writeError(w, http.StatusBadRequest, CodeInvalidAddress, "token is required")
		return 0, "", false
	}
	return chainID, token, true
}

// writeScanError maps scan service errors to protocol error codes.
func (s *Server) writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scan.ErrUnsupportedChain):
		s.writeError(w, http.StatusBadRequest, CodeUnsupportedChain, err.Error())
	case errors.Is(err, scan.ErrInvalidAddress):
		s.writeError(w, http.StatusBadRequest, CodeInvalidAddress, err.Error())
	case errors.Is(err, scan.ErrInvalidMinValue):
		s.writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, scan.ErrScanFailed):
		s.writeError(w, http.StatusBadGateway, CodeScanFailed, err.Error())
	default:
		s.logger.Printf("scan error: %v", err)
		s.writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// writeSignalError maps signal detector errors to protocol error codes.
func (s *Server) writeSignalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, signal.ErrUnsupportedChain):
		s.writeError(w, http.StatusBadRequest, CodeUnsupportedChain, err.Error())
	case errors.Is(err, signal.ErrInvalidToken):
		s.writeError(w, http.StatusBadRequest, CodeInvalidAddress, err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, CodeScanFailed, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Code: code, Message: message})
}
