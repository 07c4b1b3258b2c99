package domain

// Trade sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// BookEntry is one (possibly merged) order book line or a user's open order.
type BookEntry struct {
	Type        string `json:"type"`
	Price       string `json:"price"`
	Amount      int64  `json:"amount"`
	Total       int64  `json:"total"`
	FeeProvided string `json:"fee_provided,omitempty"`
	FeeRequired string `json:"fee_required,omitempty"`

	// Populated only for per-user order lists.
	Completion string `json:"completion,omitempty"`
	TxIndex    int64  `json:"tx_index,omitempty"`
	TxHash     string `json:"tx_hash,omitempty"`
	Source     string `json:"source,omitempty"`
	BlockIndex int64  `json:"block_index,omitempty"`
	BlockTime  int64  `json:"block_time,omitempty"`
}

// Trade is one participant's view of an order match.
type Trade struct {
	MatchID       string `json:"match_id"`
	Type          string `json:"type"`
	Price         string `json:"price"`
	Amount        int64  `json:"amount"`
	Total         int64  `json:"total"`
	Source        string `json:"source"`
	Countersource string `json:"countersource"`
	BlockIndex    int64  `json:"block_index"`
	BlockTime     int64  `json:"block_time"`
	Status        string `json:"status"`
}

// Market is one entry of the market list.
type Market struct {
	BaseAsset   string `json:"base_asset"`
	QuoteAsset  string `json:"quote_asset"`
	Volume      int64  `json:"volume"`
	Price       string `json:"price"`
	Trend       int    `json:"trend"`
	Progression string `json:"progression"`
	Price24h    string `json:"price_24h"`
	Supply      int64  `json:"supply"`
	Divisible   bool   `json:"divisible"`
	MarketCap   string `json:"market_cap"`
	WithImage   bool   `json:"with_image"`
	Pos         int    `json:"pos"`
}

// UserPair is a pair shown to a user, enriched with its live price.
type UserPair struct {
	BaseAsset    string `json:"base_asset"`
	QuoteAsset   string `json:"quote_asset"`
	MyOrderCount int64  `json:"my_order_count,omitempty"`
	Price        string `json:"price"`
	Trend        int    `json:"trend"`
	Progression  string `json:"progression"`
	Price24h     string `json:"price_24h"`
}

// MarketDetail is the full view of a single market.
type MarketDetail struct {
	BaseAsset           string         `json:"base_asset"`
	QuoteAsset          string         `json:"quote_asset"`
	Price               string         `json:"price"`
	Trend               int            `json:"trend"`
	Progression         string         `json:"progression"`
	Price24h            string         `json:"price_24h"`
	Supply              int64          `json:"supply"`
	BaseAssetDivisible  bool           `json:"base_asset_divisible"`
	QuoteAssetDivisible bool           `json:"quote_asset_divisible"`
	BuyOrders           []BookEntry    `json:"buy_orders"`
	SellOrders          []BookEntry    `json:"sell_orders"`
	LastTrades          []Trade        `json:"last_trades"`
	BaseAssetInfos      map[string]any `json:"base_asset_infos,omitempty"`
}
