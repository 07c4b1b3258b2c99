package domain

// OrderStatusOpen marks an order still on the book.
const OrderStatusOpen = "open"

// Order match statuses.
const (
	MatchStatusCompleted = "completed"
	MatchStatusExpired   = "expired"
)

// Order is a standing offer on the ledger.
// Corresponds to the orders table joined with blocks.block_time.
type Order struct {
	TxIndex       int64
	TxHash        string
	BlockIndex    int64
	BlockTime     int64 // unix seconds
	Source        string
	GiveAsset     string
	GiveQuantity  int64
	GiveRemaining int64
	GetAsset      string
	GetQuantity   int64
	GetRemaining  int64
	FeeRequired   int64
	FeeProvided   int64
	Status        string
}

// OrderMatch pairs two orders. Immutable once recorded.
// Corresponds to the order_matches table joined with blocks.block_time.
type OrderMatch struct {
	ID               string
	Tx0Index         int64
	Tx0Address       string
	Tx1Index         int64
	Tx1Address       string
	ForwardAsset     string
	ForwardQuantity  int64
	BackwardAsset    string
	BackwardQuantity int64
	BlockIndex       int64
	BlockTime        int64 // unix seconds
	Status           string
}

// TxIndex is the later of the two matched transactions.
func (m *OrderMatch) TxIndex() int64 {
	if m.Tx0Index > m.Tx1Index {
		return m.Tx0Index
	}
	return m.Tx1Index
}
