// Package dex computes market analytics for the token exchange: pair
// discovery, order books, trade history and price movement, assembled into
// the market list and market detail views.
//
// Every entry point is request scoped and stateless. Ledger queries are issued
// sequentially and nothing is cached between calls.
package dex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
	"dex-markets/internal/observability"
	"dex-markets/internal/pricemath"
	"dex-markets/internal/storage"
)

var (
	// ErrMissingSupply is returned when an asset of a market has no valid
	// issuance and is not a reserve asset.
	ErrMissingSupply = errors.New("missing supply")

	// ErrDataSourceUnavailable wraps every ledger or metadata store failure.
	ErrDataSourceUnavailable = errors.New("data source unavailable")
)

// Options holds market computation parameters.
type Options struct {
	Reserves domain.Reserves

	// Fee thresholds, as a percentage of the order quantity, applied to
	// orders giving (MinFeeProvided) or requiring (MaxFeeRequired) the
	// secondary reserve.
	MinFeeProvided float64
	MaxFeeRequired float64

	TradeLimit  int // last trades in a market detail
	ListSize    int // pairs per discovery pass of the market list
	UserPairCap int // pairs returned by UserPairs

	// FixTrendQuirk compares the last price against the second most recent
	// match instead of re-pricing the most recent one.
	FixTrendQuirk bool
}

// DefaultOptions returns the exchange defaults.
func DefaultOptions() Options {
	return Options{
		Reserves:       domain.DefaultReserves(),
		MinFeeProvided: 0.95,
		MaxFeeRequired: 0.95,
		TradeLimit:     100,
		ListSize:       50,
		UserPairCap:    12,
	}
}

// Service builds market views from the ledger.
type Service struct {
	ledger  ledger.Ledger
	assets  storage.AssetInfoStore
	metrics *observability.Metrics
	opts    Options
	math    pricemath.Context
	now     func() time.Time
	logger  *zap.Logger
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithAssetInfoStore enables asset metadata lookups.
func WithAssetInfoStore(s storage.AssetInfoStore) ServiceOption {
	return func(svc *Service) {
		svc.assets = s
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(svc *Service) {
		svc.metrics = m
	}
}

// WithClock overrides the wall clock used for 24h windows.
func WithClock(now func() time.Time) ServiceOption {
	return func(svc *Service) {
		svc.now = now
	}
}

// WithMathContext overrides the decimal rounding context.
func WithMathContext(c pricemath.Context) ServiceOption {
	return func(svc *Service) {
		svc.math = c
	}
}

// NewService creates a market service.
func NewService(l ledger.Ledger, opts Options, logger *zap.Logger, svcOpts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		ledger: l,
		opts:   opts,
		math:   pricemath.DefaultContext(),
		now:    time.Now,
		logger: logger.Named("dex"),
	}
	for _, o := range svcOpts {
		o(s)
	}
	return s
}

// Options returns the service options.
func (s *Service) Options() Options {
	return s.opts
}

// query executes a built query, recording its latency under name.
func (s *Service) query(ctx context.Context, name string, b *ledger.Builder) ([]ledger.Row, error) {
	q, args := b.Build()
	start := time.Now()
	rows, err := s.ledger.Execute(ctx, q, args)
	s.metrics.ObserveQuery(name, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataSourceUnavailable, name, err)
	}
	s.logger.Debug("ledger query", zap.String("query", name), zap.Int("rows", len(rows)))
	return rows, nil
}

// yesterday returns the unix time 24 hours ago.
func (s *Service) yesterday() int64 {
	return s.now().Add(-24 * time.Hour).Unix()
}

// track records a market build outcome.
func (s *Service) track(view string, start time.Time, err error) {
	s.metrics.ObserveBuild(view, time.Since(start), err)
	if err != nil {
		s.logger.Debug("market build failed", zap.String("view", view), zap.Error(err))
	}
}
