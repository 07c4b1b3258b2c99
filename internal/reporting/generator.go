package reporting

import (
	"context"
	"sort"
	"time"

	"dex-markets/internal/domain"
)

// MarketLister builds the market list.
type MarketLister interface {
	MarketsList(ctx context.Context) ([]domain.Market, error)
}

// Generator produces market reports.
type Generator struct {
	markets  MarketLister
	reserves domain.Reserves
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(markets MarketLister, reserves domain.Reserves) *Generator {
	return &Generator{
		markets:  markets,
		reserves: reserves,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the market list and summarizes it.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	markets, err := g.markets.MarketsList(ctx)
	if err != nil {
		return nil, err
	}

	return &Report{
		GeneratedAt: g.now(),
		Primary:     g.reserves.Primary,
		Secondary:   g.reserves.Secondary,
		Summary:     summarize(markets, g.reserves),
		Markets:     markets,
	}, nil
}

func summarize(markets []domain.Market, reserves domain.Reserves) Summary {
	s := Summary{TotalPairs: len(markets)}

	byQuote := make(map[string]*QuoteVolume)
	for _, m := range markets {
		if m.Volume > 0 {
			s.ActivePairs++
		}
		if m.WithImage {
			s.WithImage++
		}
		switch {
		case m.Trend > 0:
			s.RisingPairs++
		case m.Trend < 0:
			s.FallingPairs++
		}

		qv, ok := byQuote[m.QuoteAsset]
		if !ok {
			qv = &QuoteVolume{Quote: m.QuoteAsset}
			byQuote[m.QuoteAsset] = qv
		}
		qv.Pairs++
		qv.Volume += m.Volume
	}

	// Reserve quotes first, in quote priority, then by name.
	rank := make(map[string]int)
	for i, q := range reserves.QuotePriority() {
		rank[q] = i + 1
	}
	for _, qv := range byQuote {
		s.VolumeByQuote = append(s.VolumeByQuote, *qv)
	}
	sort.Slice(s.VolumeByQuote, func(i, j int) bool {
		ri, rj := rank[s.VolumeByQuote[i].Quote], rank[s.VolumeByQuote[j].Quote]
		if ri != rj {
			if ri == 0 || rj == 0 {
				return rj == 0
			}
			return ri < rj
		}
		return s.VolumeByQuote[i].Quote < s.VolumeByQuote[j].Quote
	})
	return s
}
