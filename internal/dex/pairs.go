package dex

import (
	"context"
	"time"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
	"dex-markets/internal/pricemath"
)

// OrderPair is a pair discovered from open orders.
type OrderPair struct {
	Pair       domain.Pair
	OrderCount int64
}

// ReservePair is a pair traded against a reserve asset. Base is the other
// asset, Quote the reserve.
type ReservePair struct {
	Pair          domain.Pair
	BaseQuantity  int64
	QuoteQuantity int64
}

// Key returns the pair key "base/reserve".
func (p ReservePair) Key() string {
	return p.Pair.Key()
}

// PairsWithOrders returns pairs with open orders placed by addresses, most
// orders first, capped at maxPairs. An empty address set scans every source.
func (s *Service) PairsWithOrders(ctx context.Context, addresses []string, maxPairs int) ([]OrderPair, error) {
	d := s.ledger.Dialect()
	b := ledger.NewBuilder(d)
	b.Write(`SELECT (`+d.Least("give_asset", "get_asset")+` || '/' || `+d.Greatest("give_asset", "get_asset")+`) AS pair,
	                COUNT(*) AS order_count
	         FROM orders
	         WHERE give_asset != get_asset AND status = ? `, domain.OrderStatusOpen)
	if len(addresses) > 0 {
		b.Write(`AND source IN (`+ledger.Placeholders(len(addresses))+`) `, ledger.Args(addresses)...)
	}
	b.Write(`GROUP BY pair
	         ORDER BY order_count DESC, pair ASC
	         LIMIT ?`, maxPairs)

	rows, err := s.query(ctx, "pairs_with_orders", b)
	if err != nil {
		return nil, err
	}

	r := s.opts.Reserves
	pairs := make([]OrderPair, 0, len(rows))
	for _, row := range rows {
		a1, a2, ok := domain.SplitPairKey(row.String("pair"))
		if !ok {
			continue
		}
		pairs = append(pairs, OrderPair{
			Pair:       r.AssetsToPair(a1, a2),
			OrderCount: row.Int64("order_count"),
		})
	}
	primary := r.PrimaryPairSortedKey()
	return domain.MovePrimaryFirst(pairs, func(p OrderPair) bool {
		return p.Pair.SortedKey() == primary
	}), nil
}

// ReservePairs returns pairs matched against reserve, ordered by traded reserve
// quantity. Scanning the primary reserve skips the primary/secondary pair,
// which is found by the secondary scan. fromTime > 0 only counts matches in
// blocks after that unix time. exclude holds "base/quote" keys to skip.
func (s *Service) ReservePairs(ctx context.Context, reserve string, exclude []string, maxPairs int, fromTime int64) ([]ReservePair, error) {
	r := s.opts.Reserves
	other := `CASE WHEN forward_asset = ? THEN backward_asset ELSE forward_asset END`

	b := ledger.NewBuilder(s.ledger.Dialect())
	b.Write(`SELECT `+other+` AS base_asset, `, reserve)
	b.Write(`SUM(CASE WHEN forward_asset = ? THEN backward_quantity ELSE forward_quantity END) AS base_quantity, `, reserve)
	b.Write(`SUM(CASE WHEN forward_asset = ? THEN forward_quantity ELSE backward_quantity END) AS quote_quantity
	         FROM order_matches `, reserve)
	if fromTime > 0 {
		b.Write(`INNER JOIN blocks ON order_matches.block_index = blocks.block_index `)
	}
	if reserve == r.Primary {
		b.Write(`WHERE ((forward_asset = ? AND backward_asset != ?) OR (forward_asset != ? AND backward_asset = ?)) `,
			reserve, r.Secondary, r.Secondary, reserve)
	} else {
		b.Write(`WHERE (forward_asset = ? OR backward_asset = ?) `, reserve, reserve)
	}
	if bases := excludedBases(exclude, reserve); len(bases) > 0 {
		b.Write(`AND `+other+` NOT IN (`+ledger.Placeholders(len(bases))+`) `,
			append([]any{reserve}, ledger.Args(bases)...)...)
	}
	if fromTime > 0 {
		b.Write(`AND blocks.block_time > ? `, fromTime)
	}
	b.Write(`AND forward_asset != backward_asset
	         GROUP BY base_asset
	         ORDER BY quote_quantity DESC, base_asset ASC
	         LIMIT ?`, maxPairs)

	rows, err := s.query(ctx, "reserve_pairs", b)
	if err != nil {
		return nil, err
	}

	pairs := make([]ReservePair, 0, len(rows))
	for _, row := range rows {
		pairs = append(pairs, ReservePair{
			Pair:          domain.Pair{Base: row.String("base_asset"), Quote: reserve},
			BaseQuantity:  row.Int64("base_quantity"),
			QuoteQuantity: row.Int64("quote_quantity"),
		})
	}
	return pairs, nil
}

// AllReservePairs scans the primary then the secondary reserve and
// concatenates the results with the primary pair first.
func (s *Service) AllReservePairs(ctx context.Context, exclude []string, maxPairs int, fromTime int64) ([]ReservePair, error) {
	r := s.opts.Reserves
	var all []ReservePair
	for _, reserve := range []string{r.Primary, r.Secondary} {
		pairs, err := s.ReservePairs(ctx, reserve, exclude, maxPairs, fromTime)
		if err != nil {
			return nil, err
		}
		all = append(all, pairs...)
	}
	primary := r.PrimaryPairKey()
	return domain.MovePrimaryFirst(all, func(p ReservePair) bool {
		return p.Key() == primary
	}), nil
}

// UserPairs returns the pairs to show a user: pairs where addresses have open
// orders, topped up with the most traded reserve pairs, always including the
// primary pair, each enriched with its live price movement.
func (s *Service) UserPairs(ctx context.Context, addresses []string) (result []domain.UserPair, err error) {
	start := time.Now()
	defer func() { s.track("user_pairs", start, err) }()

	r := s.opts.Reserves
	maxPairs := s.opts.UserPairCap

	var top []domain.UserPair
	if len(addresses) > 0 {
		withOrders, err := s.PairsWithOrders(ctx, addresses, maxPairs)
		if err != nil {
			return nil, err
		}
		for _, p := range withOrders {
			top = append(top, domain.UserPair{
				BaseAsset:    p.Pair.Base,
				QuoteAsset:   p.Pair.Quote,
				MyOrderCount: p.OrderCount,
			})
		}
	}

	exclude := make([]string, 0, len(top))
	for _, p := range top {
		exclude = append(exclude, p.BaseAsset+"/"+p.QuoteAsset)
	}

	primaryKey := r.PrimaryPairKey()
	for _, reserve := range []string{r.Primary, r.Secondary} {
		if len(top) >= maxPairs {
			break
		}
		pairs, err := s.ReservePairs(ctx, reserve, exclude, maxPairs-len(top), 0)
		if err != nil {
			return nil, err
		}
		for _, p := range pairs {
			up := domain.UserPair{BaseAsset: p.Pair.Base, QuoteAsset: p.Pair.Quote}
			if p.Key() == primaryKey {
				top = append([]domain.UserPair{up}, top...)
			} else {
				top = append(top, up)
			}
		}
	}

	hasPrimary := false
	for _, p := range top {
		if p.BaseAsset+"/"+p.QuoteAsset == primaryKey {
			hasPrimary = true
			break
		}
	}
	if !hasPrimary {
		top = append([]domain.UserPair{{BaseAsset: r.Primary, QuoteAsset: r.Secondary}}, top...)
	}
	if len(top) > maxPairs {
		top = top[:maxPairs]
	}

	assets := make([]string, 0, 2*len(top))
	for _, p := range top {
		assets = append(assets, p.BaseAsset, p.QuoteAsset)
	}
	supplies, err := s.AssetsSupply(ctx, assets)
	if err != nil {
		return nil, err
	}

	for i := range top {
		pair := domain.Pair{Base: top[i].BaseAsset, Quote: top[i].QuoteAsset}
		mv, err := s.PriceMovement(ctx, pair, supplies)
		if err != nil {
			return nil, err
		}
		top[i].Price = pricemath.FixedFloat(mv.Price, pricemath.PricePlaces)
		top[i].Trend = mv.Trend
		top[i].Progression = pricemath.Fixed(mv.Progression, pricemath.PercentPlaces)
		top[i].Price24h = pricemath.FixedFloat(mv.Price24h, pricemath.PricePlaces)
	}
	return top, nil
}

// excludedBases returns the base assets of keys quoted in reserve.
func excludedBases(exclude []string, reserve string) []string {
	var bases []string
	for _, key := range exclude {
		base, quote, ok := domain.SplitPairKey(key)
		if ok && quote == reserve {
			bases = append(bases, base)
		}
	}
	return bases
}
