package dex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
	"dex-markets/internal/ledger/stub"
)

func TestMarketTrades_PublicEmitsBothPerspectives(t *testing.T) {
	l := stub.NewLedger()
	// alice gives 1000 FOO, bob gives 500 SCH
	l.OnRows([]ledger.Row{match("m1", "FOO", 1000, "SCH", 500)}, "FROM order_matches")
	svc := newTestService(l)

	trades, err := svc.MarketTrades(context.Background(), "FOO", "SCH", nil, 0, fooSupplies)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	sell, buy := trades[0], trades[1]
	assert.Equal(t, domain.SideSell, sell.Type)
	assert.Equal(t, "alice", sell.Source)
	assert.Equal(t, "bob", sell.Countersource)
	assert.Equal(t, "0.50000000", sell.Price)
	assert.Equal(t, int64(1000), sell.Amount)
	assert.Equal(t, int64(500), sell.Total)

	assert.Equal(t, domain.SideBuy, buy.Type)
	assert.Equal(t, "bob", buy.Source)
	assert.Equal(t, "alice", buy.Countersource)
	assert.Equal(t, sell.Price, buy.Price)
	assert.Equal(t, sell.Amount, buy.Amount)
	assert.Equal(t, sell.Total, buy.Total)

	for _, tr := range trades {
		assert.Equal(t, "m1", tr.MatchID)
		assert.Equal(t, domain.MatchStatusCompleted, tr.Status)
		assert.Equal(t, int64(100), tr.BlockIndex)
	}

	calls := l.CallsMatching("FROM order_matches")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Query, "status != ?")
	assert.Equal(t, []any{"FOO", "SCH", "FOO", "SCH", domain.MatchStatusExpired, 100}, calls[0].Bindings)
}

func TestMarketTrades_ReversedOrientation(t *testing.T) {
	l := stub.NewLedger()
	// alice gives 500 SCH for 1000 FOO
	l.OnRows([]ledger.Row{match("m1", "SCH", 500, "FOO", 1000)}, "FROM order_matches")
	svc := newTestService(l)

	trades, err := svc.MarketTrades(context.Background(), "SCH", "FOO", nil, 10, fooSupplies)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, domain.SideBuy, trades[0].Type)
	assert.Equal(t, "alice", trades[0].Source)
	assert.Equal(t, int64(1000), trades[0].Amount)
	assert.Equal(t, int64(500), trades[0].Total)
	assert.Equal(t, "0.50000000", trades[0].Price)

	assert.Equal(t, domain.SideSell, trades[1].Type)
	assert.Equal(t, "bob", trades[1].Source)
}

func TestMarketTrades_AddressFilter(t *testing.T) {
	tests := []struct {
		name      string
		addresses []string
		sources   []string
	}{
		{name: "tx0 only", addresses: []string{"alice"}, sources: []string{"alice"}},
		{name: "tx1 only", addresses: []string{"bob"}, sources: []string{"bob"}},
		{name: "both", addresses: []string{"bob", "alice"}, sources: []string{"alice", "bob"}},
		{name: "neither", addresses: []string{"carol"}, sources: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expired := match("m1", "FOO", 1000, "SCH", 500)
			expired["status"] = domain.MatchStatusExpired
			l := stub.NewLedger()
			l.OnRows([]ledger.Row{expired}, "FROM order_matches")
			svc := newTestService(l)

			trades, err := svc.MarketTrades(context.Background(), "FOO", "SCH", tt.addresses, 0, fooSupplies)
			require.NoError(t, err)

			var sources []string
			for _, tr := range trades {
				sources = append(sources, tr.Source)
				assert.Equal(t, domain.MatchStatusExpired, tr.Status, "per-user trades include expired matches")
			}
			assert.Equal(t, tt.sources, sources)

			calls := l.CallsMatching("FROM order_matches")
			require.Len(t, calls, 1)
			assert.NotContains(t, calls[0].Query, "status != ?")
			assert.Contains(t, calls[0].Query, "tx0_address IN")
		})
	}
}

func TestMarketTrades_MissingSupply(t *testing.T) {
	l := stub.NewLedger()
	l.OnRows([]ledger.Row{match("m1", "GHOST", 1, "SCH", 1)}, "FROM order_matches")
	svc := newTestService(l)

	_, err := svc.MarketTrades(context.Background(), "GHOST", "SCH", nil, 0, fooSupplies)
	assert.ErrorIs(t, err, ErrMissingSupply)
}
