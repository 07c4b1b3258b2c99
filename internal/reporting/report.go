package reporting

import (
	"time"

	"dex-markets/internal/domain"
)

// Report is a snapshot of the market list.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Primary     string    `json:"primary_reserve"`
	Secondary   string    `json:"secondary_reserve"`

	Summary Summary `json:"summary"`

	// Markets in list order (primary pair first, then by volume).
	Markets []domain.Market `json:"markets"`
}

// Summary aggregates the market list.
type Summary struct {
	TotalPairs   int `json:"total_pairs"`
	ActivePairs  int `json:"active_pairs"` // pairs traded in the last 24h
	WithImage    int `json:"with_image"`
	RisingPairs  int `json:"rising_pairs"`
	FallingPairs int `json:"falling_pairs"`

	// Quote volume of the last 24h, per quote asset.
	VolumeByQuote []QuoteVolume `json:"volume_by_quote"`
}

// QuoteVolume is the 24h volume of every pair quoted in Quote.
type QuoteVolume struct {
	Quote  string `json:"quote"`
	Pairs  int    `json:"pairs"`
	Volume int64  `json:"volume"`
}
