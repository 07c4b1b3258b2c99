package domain

import "strings"

// Reserves names the two universal counterpart assets.
// Primary/Secondary is always the primary market.
type Reserves struct {
	Primary   string // R1, issued on-chain with a dedicated supply query
	Secondary string // R2, the network's base unit
}

// DefaultReserves returns the reserve pair used by the exchange.
func DefaultReserves() Reserves {
	return Reserves{Primary: "SHP", Secondary: "SCH"}
}

// IsReserve reports whether asset is one of the reserve assets.
func (r Reserves) IsReserve(asset string) bool {
	return asset == r.Primary || asset == r.Secondary
}

// PrimaryPair returns the canonical primary market.
func (r Reserves) PrimaryPair() Pair {
	return Pair{Base: r.Primary, Quote: r.Secondary}
}

// PrimaryPairKey is the base/quote key of the primary market.
func (r Reserves) PrimaryPairKey() string {
	return r.Primary + "/" + r.Secondary
}

// PrimaryPairSortedKey is the min/max key of the primary market.
func (r Reserves) PrimaryPairSortedKey() string {
	return PairKey(r.Primary, r.Secondary)
}

// QuotePriority returns assets that always take the quote side, most preferred first.
func (r Reserves) QuotePriority() []string {
	return []string{r.Secondary, r.Primary}
}

// Supply is the circulating supply and divisibility of an asset.
type Supply struct {
	Amount    int64
	Divisible bool
}

// SupplyMap maps asset identifier to its resolved supply.
// A missing key means the asset has no valid issuance.
type SupplyMap map[string]Supply

// Pair is a canonicalized trading pair. Price is quote per one base.
type Pair struct {
	Base  string `json:"base_asset"`
	Quote string `json:"quote_asset"`
}

// Key returns "base/quote".
func (p Pair) Key() string {
	return p.Base + "/" + p.Quote
}

// SortedKey returns the display key min(asset)/max(asset).
func (p Pair) SortedKey() string {
	return PairKey(p.Base, p.Quote)
}

// PairKey returns min(a,b)/max(a,b).
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "/" + b
}

// SplitPairKey splits "A/B" into its two assets.
func SplitPairKey(key string) (string, string, bool) {
	a, b, ok := strings.Cut(key, "/")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// AssetsToPair canonicalizes two assets into base/quote. The first asset of the
// reserve quote priority present in the pair becomes the quote; otherwise the
// lexicographically smaller asset is the base.
func (r Reserves) AssetsToPair(asset1, asset2 string) Pair {
	for _, quote := range r.QuotePriority() {
		if asset1 == quote {
			return Pair{Base: asset2, Quote: asset1}
		}
		if asset2 == quote {
			return Pair{Base: asset1, Quote: asset2}
		}
	}
	if asset1 < asset2 {
		return Pair{Base: asset1, Quote: asset2}
	}
	return Pair{Base: asset2, Quote: asset1}
}

// MovePrimaryFirst relocates the first element matching isPrimary to index 0,
// keeping the relative order of the rest.
func MovePrimaryFirst[T any](items []T, isPrimary func(T) bool) []T {
	for i, item := range items {
		if !isPrimary(item) {
			continue
		}
		if i == 0 {
			return items
		}
		copy(items[1:i+1], items[:i])
		items[0] = item
		return items
	}
	return items
}
