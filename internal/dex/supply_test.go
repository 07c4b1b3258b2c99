package dex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger/stub"
)

func TestAssetsSupply_Reserves(t *testing.T) {
	l := stub.NewLedger()
	l.Supply = 2_600_000_000_000_000
	svc := newTestService(l)

	supplies, err := svc.AssetsSupply(context.Background(), []string{"SHP", "SCH"})
	require.NoError(t, err)

	assert.Equal(t, domain.Supply{Amount: 2_600_000_000_000_000, Divisible: true}, supplies["SHP"])
	assert.Equal(t, domain.Supply{Amount: 0, Divisible: true}, supplies["SCH"])
	assert.Empty(t, l.Calls(), "reserves must not query issuances")
}

func TestAssetsSupply_Issuances(t *testing.T) {
	l := stub.NewLedger()
	l.On(issuances(map[string]domain.Supply{
		"FOO": {Amount: 1000, Divisible: false},
		"BAR": {Amount: 5_000_000_000, Divisible: true},
	}), "FROM issuances")
	svc := newTestService(l)

	assets := []string{"FOO", "BAR", "FOO", "GHOST", "SCH"}
	supplies, err := svc.AssetsSupply(context.Background(), assets)
	require.NoError(t, err)

	assert.Equal(t, domain.Supply{Amount: 1000, Divisible: false}, supplies["FOO"])
	assert.Equal(t, domain.Supply{Amount: 5_000_000_000, Divisible: true}, supplies["BAR"])
	assert.Contains(t, supplies, "SCH")
	assert.NotContains(t, supplies, "GHOST", "assets without issuance are absent")
	assert.Equal(t, []string{"FOO", "BAR", "FOO", "GHOST", "SCH"}, assets, "input must not be modified")

	calls := l.CallsMatching("FROM issuances")
	require.Len(t, calls, 1)
	assert.Equal(t, []any{"BAR", "FOO", "GHOST", "valid"}, calls[0].Bindings)
}

func TestAssetsSupply_MissingSupplyIsError(t *testing.T) {
	svc := newTestService(stub.NewLedger())

	supplies, err := svc.AssetsSupply(context.Background(), []string{"GHOST", "SCH"})
	require.NoError(t, err)

	_, err = supplyOf(supplies, "GHOST")
	assert.ErrorIs(t, err, ErrMissingSupply)
}

func TestAssetsSupply_TransportFailure(t *testing.T) {
	l := stub.NewLedger()
	l.SupplyErr = errors.New("connection refused")
	svc := newTestService(l)

	_, err := svc.AssetsSupply(context.Background(), []string{"SHP"})
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)

	l = stub.NewLedger()
	l.Err = errors.New("timeout")
	svc = newTestService(l)

	_, err = svc.AssetsSupply(context.Background(), []string{"FOO"})
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
}
