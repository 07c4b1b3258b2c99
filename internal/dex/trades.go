package dex

import (
	"context"
	"slices"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
	"dex-markets/internal/pricemath"
)

// MarketTrades returns the trades of the pair formed by asset1 and asset2,
// most recent block first, at most limit matches (limit <= 0 uses the
// configured trade limit).
//
// Without addresses every non-expired match yields two trades, one per
// participant. With addresses, matches of any status involving them are
// returned and only the perspectives of the listed participants are emitted.
func (s *Service) MarketTrades(ctx context.Context, asset1, asset2 string, addresses []string, limit int, supplies domain.SupplyMap) ([]domain.Trade, error) {
	pair := s.opts.Reserves.AssetsToPair(asset1, asset2)
	if supplies == nil {
		var err error
		if supplies, err = s.AssetsSupply(ctx, []string{asset1, asset2}); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = s.opts.TradeLimit
	}

	b := ledger.NewBuilder(s.ledger.Dialect())
	b.Write(`SELECT order_matches.*, blocks.block_time AS block_time
	         FROM order_matches INNER JOIN blocks ON order_matches.block_index = blocks.block_index
	         WHERE order_matches.forward_asset IN (?, ?)
	         AND order_matches.backward_asset IN (?, ?) `,
		asset1, asset2, asset1, asset2)
	if len(addresses) > 0 {
		ph := ledger.Placeholders(len(addresses))
		args := append(ledger.Args(addresses), ledger.Args(addresses)...)
		b.Write(`AND (order_matches.tx0_address IN (`+ph+`) OR order_matches.tx1_address IN (`+ph+`)) `, args...)
	} else {
		b.Write(`AND order_matches.status != ? `, domain.MatchStatusExpired)
	}
	b.Write(`ORDER BY order_matches.block_index DESC, order_matches.tx1_index DESC LIMIT ?`, limit)

	rows, err := s.query(ctx, "market_trades", b)
	if err != nil {
		return nil, err
	}

	public := len(addresses) == 0
	trades := make([]domain.Trade, 0, 2*len(rows))
	for _, row := range rows {
		m := decodeMatch(row)

		if public || slices.Contains(addresses, m.Tx0Address) {
			t, err := perspective(m, m.Tx0Address, m.Tx1Address, m.ForwardAsset == pair.Base, true, supplies)
			if err != nil {
				return nil, err
			}
			trades = append(trades, t)
		}
		if public || slices.Contains(addresses, m.Tx1Address) {
			t, err := perspective(m, m.Tx1Address, m.Tx0Address, m.BackwardAsset == pair.Base, false, supplies)
			if err != nil {
				return nil, err
			}
			trades = append(trades, t)
		}
	}
	return trades, nil
}

// perspective builds the trade seen by source. tx0 gave the forward asset
// and tx1 the backward asset; sellsBase reports whether source gave the base.
func perspective(m domain.OrderMatch, source, countersource string, sellsBase, isTx0 bool, supplies domain.SupplyMap) (domain.Trade, error) {
	gaveAsset, gaveQty := m.ForwardAsset, m.ForwardQuantity
	gotAsset, gotQty := m.BackwardAsset, m.BackwardQuantity
	if !isTx0 {
		gaveAsset, gaveQty, gotAsset, gotQty = gotAsset, gotQty, gaveAsset, gaveQty
	}
	gaveDiv, gotDiv, err := divisibility(supplies, gaveAsset, gotAsset)
	if err != nil {
		return domain.Trade{}, err
	}

	t := domain.Trade{
		MatchID:       m.ID,
		Source:        source,
		Countersource: countersource,
		BlockIndex:    m.BlockIndex,
		BlockTime:     m.BlockTime,
		Status:        m.Status,
	}
	if sellsBase {
		t.Type = domain.SideSell
		t.Price = pricemath.FormatPrice(gaveQty, gotQty, gaveDiv, gotDiv)
		t.Amount = gaveQty
		t.Total = gotQty
	} else {
		t.Type = domain.SideBuy
		t.Price = pricemath.FormatPrice(gotQty, gaveQty, gotDiv, gaveDiv)
		t.Amount = gotQty
		t.Total = gaveQty
	}
	return t, nil
}
