package dex

import (
	"time"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
	"dex-markets/internal/ledger/stub"
)

var testNow = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

func newTestService(l *stub.Ledger, opts ...ServiceOption) *Service {
	opts = append([]ServiceOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(l, DefaultOptions(), nil, opts...)
}

// issuances answers the issuance supply query from a fixed table.
func issuances(table map[string]domain.Supply) stub.HandlerFunc {
	return func(_ string, bindings []any) ([]ledger.Row, error) {
		var rows []ledger.Row
		for _, b := range bindings {
			asset, _ := b.(string)
			sup, ok := table[asset]
			if !ok {
				continue
			}
			rows = append(rows, ledger.Row{"asset": asset, "supply": sup.Amount, "divisible": sup.Divisible})
		}
		return rows, nil
	}
}

func order(txIndex int64, give string, giveQty, giveRemaining int64, get string, getQty int64) ledger.Row {
	return ledger.Row{
		"tx_index":       txIndex,
		"tx_hash":        "hash",
		"block_index":    int64(100),
		"block_time":     int64(1700000000),
		"source":         "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2",
		"give_asset":     give,
		"give_quantity":  giveQty,
		"give_remaining": giveRemaining,
		"get_asset":      get,
		"get_quantity":   getQty,
		"get_remaining":  getQty,
		"fee_required":   int64(0),
		"fee_provided":   int64(0),
		"status":         domain.OrderStatusOpen,
	}
}

func match(id string, fwd string, fwdQty int64, bwd string, bwdQty int64) ledger.Row {
	return ledger.Row{
		"id":                id,
		"tx0_index":         int64(1),
		"tx0_address":       "alice",
		"tx1_index":         int64(2),
		"tx1_address":       "bob",
		"forward_asset":     fwd,
		"forward_quantity":  fwdQty,
		"backward_asset":    bwd,
		"backward_quantity": bwdQty,
		"block_index":       int64(100),
		"block_time":        int64(1700000000),
		"status":            domain.MatchStatusCompleted,
	}
}
