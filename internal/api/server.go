// Package api exposes the market service over HTTP and a WebSocket stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dex-markets/internal/dex"
	"dex-markets/internal/domain"
	"dex-markets/internal/observability"
)

var errBadRequest = errors.New("bad request")

// MarketService is the subset of dex.Service served over HTTP.
type MarketService interface {
	MarketsList(ctx context.Context) ([]domain.Market, error)
	MarketDetails(ctx context.Context, asset1, asset2 string) (*domain.MarketDetail, error)
	UserPairs(ctx context.Context, addresses []string) ([]domain.UserPair, error)
	MarketOrders(ctx context.Context, asset1, asset2 string, addresses []string, supplies domain.SupplyMap) ([]domain.BookEntry, error)
	MarketTrades(ctx context.Context, asset1, asset2 string, addresses []string, limit int, supplies domain.SupplyMap) ([]domain.Trade, error)
}

var _ MarketService = (*dex.Service)(nil)

// Server serves market views.
type Server struct {
	addr           string
	svc            MarketService
	metrics        *observability.Metrics
	logger         *zap.Logger
	streamInterval time.Duration
	requestTimeout time.Duration
	upgrader       websocket.Upgrader
	srv            *http.Server
}

// Option configures Server.
type Option func(*Server)

// WithMetrics records request counts and serves /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStreamInterval sets how often /ws/markets pushes a fresh list.
func WithStreamInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.streamInterval = d
		}
	}
}

// WithRequestTimeout bounds the service call of every request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// NewServer creates a server for svc listening on addr. A nil logger is
// replaced with a no-op one.
func NewServer(addr string, svc MarketService, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		addr:           addr,
		svc:            svc,
		logger:         logger.Named("api"),
		streamInterval: 30 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /healthz", s.handleHealth)
	s.route(mux, "GET /markets", s.handleMarkets)
	s.route(mux, "GET /markets/{asset1}/{asset2}", s.handleMarketDetail)
	s.route(mux, "GET /pairs", s.handlePairs)
	s.route(mux, "GET /orders", s.handleOrders)
	s.route(mux, "GET /trades", s.handleTrades)
	mux.HandleFunc("GET /ws/markets", s.handleStream)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("http server starting", zap.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// route registers h under pattern and counts its responses.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		if s.requestTimeout > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
			defer cancel()
			r = r.WithContext(ctx)
		}
		h(rec, r)
		s.metrics.RecordRequest(pattern, rec.code)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.svc.MarketsList(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markets)
}

func (s *Server) handleMarketDetail(w http.ResponseWriter, r *http.Request) {
	asset1, asset2, err := assetPair(r.PathValue("asset1"), r.PathValue("asset2"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	detail, err := s.svc.MarketDetails(r.Context(), asset1, asset2)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	addresses, err := parseAddresses(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(addresses) == 0 {
		s.writeError(w, r, fmt.Errorf("%w: addresses required", errBadRequest))
		return
	}
	pairs, err := s.svc.UserPairs(r.Context(), addresses)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pairs)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asset1, asset2, err := assetPair(q.Get("asset1"), q.Get("asset2"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	addresses, err := parseAddresses(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	orders, err := s.svc.MarketOrders(r.Context(), asset1, asset2, addresses, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	asset1, asset2, err := assetPair(q.Get("asset1"), q.Get("asset2"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	addresses, err := parseAddresses(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.writeError(w, r, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw))
			return
		}
	}
	trades, err := s.svc.MarketTrades(r.Context(), asset1, asset2, addresses, limit, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// writeError maps service errors onto status codes. Server side failures
// are logged once here.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("code", code),
			zap.Error(err))
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, dex.ErrMissingSupply):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dex.ErrDataSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func assetPair(asset1, asset2 string) (string, string, error) {
	asset1 = strings.TrimSpace(asset1)
	asset2 = strings.TrimSpace(asset2)
	if asset1 == "" || asset2 == "" {
		return "", "", fmt.Errorf("%w: asset1 and asset2 required", errBadRequest)
	}
	if asset1 == asset2 {
		return "", "", fmt.Errorf("%w: assets must differ", errBadRequest)
	}
	return asset1, asset2, nil
}

// parseAddresses accepts repeated or comma separated addresses values.
func parseAddresses(r *http.Request) ([]string, error) {
	var raw []string
	for _, v := range r.URL.Query()["addresses"] {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				raw = append(raw, a)
			}
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return domain.ValidateAddresses(raw)
}
