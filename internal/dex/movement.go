package dex

import (
	"context"

	"github.com/shopspring/decimal"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
	"dex-markets/internal/pricemath"
)

// Movement is the last price of a pair, its trend against the previous
// match and the progression since the last price 24 hours ago.
type Movement struct {
	Price       float64
	Trend       int
	Price24h    float64
	Progression decimal.Decimal
}

// PairPrice returns the price of the most recent match of the pair at or
// before maxBlockTime (0 means no bound) and its trend: 1 up, -1 down, 0
// flat or fewer than two matches. A pair without matches has price 0.
func (s *Service) PairPrice(ctx context.Context, pair domain.Pair, maxBlockTime int64, supplies domain.SupplyMap) (float64, int, error) {
	if supplies == nil {
		var err error
		if supplies, err = s.AssetsSupply(ctx, []string{pair.Base, pair.Quote}); err != nil {
			return 0, 0, err
		}
	}

	d := s.ledger.Dialect()
	b := ledger.NewBuilder(d)
	b.Write(`SELECT order_matches.*, `+d.Greatest("order_matches.tx0_index", "order_matches.tx1_index")+` AS tx_index, blocks.block_time AS block_time
	         FROM order_matches INNER JOIN blocks ON order_matches.block_index = blocks.block_index
	         WHERE order_matches.forward_asset IN (?, ?)
	         AND order_matches.backward_asset IN (?, ?) `,
		pair.Base, pair.Quote, pair.Base, pair.Quote)
	if maxBlockTime > 0 {
		b.Write(`AND blocks.block_time <= ? `, maxBlockTime)
	}
	b.Write(`ORDER BY tx_index DESC LIMIT 2`)

	rows, err := s.query(ctx, "pair_price", b)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}

	matches := make([]domain.OrderMatch, len(rows))
	for i, row := range rows {
		matches[i] = decodeMatch(row)
	}

	last, err := matchPrice(matches[0], matches[0].ForwardAsset == pair.Base, supplies)
	if err != nil {
		return 0, 0, err
	}
	if len(matches) < 2 {
		return last, 0, nil
	}

	// The previous price is oriented by the second match but, unless
	// FixTrendQuirk is set, computed from the quantities of the first.
	prev := matches[0]
	if s.opts.FixTrendQuirk {
		prev = matches[1]
	}
	before, err := matchPrice(prev, matches[1].ForwardAsset == pair.Base, supplies)
	if err != nil {
		return 0, 0, err
	}

	trend := 0
	switch {
	case last < before:
		trend = -1
	case last > before:
		trend = 1
	}
	return last, trend, nil
}

// PriceMovement returns the current price and trend, the price 24 hours ago
// and the progression between them.
func (s *Service) PriceMovement(ctx context.Context, pair domain.Pair, supplies domain.SupplyMap) (Movement, error) {
	if supplies == nil {
		var err error
		if supplies, err = s.AssetsSupply(ctx, []string{pair.Base, pair.Quote}); err != nil {
			return Movement{}, err
		}
	}

	price, trend, err := s.PairPrice(ctx, pair, 0, supplies)
	if err != nil {
		return Movement{}, err
	}
	price24h, _, err := s.PairPrice(ctx, pair, s.yesterday(), supplies)
	if err != nil {
		return Movement{}, err
	}

	return Movement{
		Price:       price,
		Trend:       trend,
		Price24h:    price24h,
		Progression: s.math.Progression(price, price24h),
	}, nil
}

// matchPrice prices a match in quote per base. forwardIsBase selects which
// leg of the match is the base quantity.
func matchPrice(m domain.OrderMatch, forwardIsBase bool, supplies domain.SupplyMap) (float64, error) {
	fwdDiv, bwdDiv, err := divisibility(supplies, m.ForwardAsset, m.BackwardAsset)
	if err != nil {
		return 0, err
	}
	if forwardIsBase {
		return pricemath.CalculatePrice(m.ForwardQuantity, m.BackwardQuantity, fwdDiv, bwdDiv), nil
	}
	return pricemath.CalculatePrice(m.BackwardQuantity, m.ForwardQuantity, bwdDiv, fwdDiv), nil
}

func decodeMatch(row ledger.Row) domain.OrderMatch {
	return domain.OrderMatch{
		ID:               row.String("id"),
		Tx0Index:         row.Int64("tx0_index"),
		Tx0Address:       row.String("tx0_address"),
		Tx1Index:         row.Int64("tx1_index"),
		Tx1Address:       row.String("tx1_address"),
		ForwardAsset:     row.String("forward_asset"),
		ForwardQuantity:  row.Int64("forward_quantity"),
		BackwardAsset:    row.String("backward_asset"),
		BackwardQuantity: row.Int64("backward_quantity"),
		BlockIndex:       row.Int64("block_index"),
		BlockTime:        row.Int64("block_time"),
		Status:           row.String("status"),
	}
}
