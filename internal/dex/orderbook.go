package dex

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
	"dex-markets/internal/pricemath"
)

// feeVerdict is the outcome of the secondary reserve fee check.
type feeVerdict int

const (
	feeOK feeVerdict = iota
	feeBelowMin
	feeAboveMax
	feeUncomputable
)

func (v feeVerdict) String() string {
	switch v {
	case feeOK:
		return "ok"
	case feeBelowMin:
		return "below_min_fee_provided"
	case feeAboveMax:
		return "above_max_fee_required"
	default:
		return "uncomputable"
	}
}

// MarketOrders returns the open orders of the pair formed by asset1 and
// asset2, most recent first. Without addresses the result is the public
// order book: consecutive entries of the same side and price are merged.
// With addresses only their orders are listed, each with its completion and
// transaction details. A nil supplies map is resolved from the ledger.
func (s *Service) MarketOrders(ctx context.Context, asset1, asset2 string, addresses []string, supplies domain.SupplyMap) ([]domain.BookEntry, error) {
	pair := s.opts.Reserves.AssetsToPair(asset1, asset2)
	if supplies == nil {
		var err error
		if supplies, err = s.AssetsSupply(ctx, []string{asset1, asset2}); err != nil {
			return nil, err
		}
	}

	b := ledger.NewBuilder(s.ledger.Dialect())
	b.Write(`SELECT orders.*, blocks.block_time AS block_time
	         FROM orders INNER JOIN blocks ON orders.block_index = blocks.block_index
	         WHERE orders.status = ? `, domain.OrderStatusOpen)
	if len(addresses) > 0 {
		b.Write(`AND orders.source IN (`+ledger.Placeholders(len(addresses))+`) `, ledger.Args(addresses)...)
	}
	b.Write(`AND orders.give_remaining > 0
	         AND orders.give_asset IN (?, ?)
	         AND orders.get_asset IN (?, ?)
	         AND orders.give_asset != orders.get_asset
	         ORDER BY orders.tx_index DESC`, asset1, asset2, asset1, asset2)

	rows, err := s.query(ctx, "market_orders", b)
	if err != nil {
		return nil, err
	}

	public := len(addresses) == 0
	entries := make([]domain.BookEntry, 0, len(rows))
	for _, row := range rows {
		o := decodeOrder(row)

		entry, verdict := s.checkFee(&o)
		if verdict != feeOK {
			s.logger.Debug("order excluded by fee",
				zap.Int64("tx_index", o.TxIndex), zap.Stringer("verdict", verdict))
			continue
		}

		if err := s.priceOrder(&entry, &o, pair, supplies); err != nil {
			return nil, err
		}

		if public {
			if n := len(entries); n > 0 && entries[n-1].Type == entry.Type && entries[n-1].Price == entry.Price {
				entries[n-1].Amount += entry.Amount
				entries[n-1].Total += entry.Total
				continue
			}
		} else {
			if c, ok := s.math.Completion(o.GiveQuantity, o.GiveRemaining); ok {
				entry.Completion = c
			} else {
				entry.Completion = pricemath.Fixed(decimal.Zero, pricemath.PercentPlaces) + "%"
			}
			entry.TxIndex = o.TxIndex
			entry.TxHash = o.TxHash
			entry.Source = o.Source
			entry.BlockIndex = o.BlockIndex
			entry.BlockTime = o.BlockTime
		}

		entries = append(entries, entry)
	}
	return entries, nil
}

// checkFee applies the fee thresholds to orders giving or requiring the
// secondary reserve and records the computed percentage on the entry. The
// thresholds are compared against the exact ratio, not the rounded display.
func (s *Service) checkFee(o *domain.Order) (domain.BookEntry, feeVerdict) {
	var entry domain.BookEntry
	secondary := s.opts.Reserves.Secondary

	switch {
	case o.GiveAsset == secondary:
		pct, ok := s.math.Percent(o.FeeProvided, o.GiveQuantity)
		if !ok {
			return entry, feeUncomputable
		}
		entry.FeeProvided = pricemath.Fixed(pct, pricemath.PercentPlaces)
		if pricemath.ComparePercent(o.FeeProvided, o.GiveQuantity, s.opts.MinFeeProvided) < 0 {
			return entry, feeBelowMin
		}
	case o.GetAsset == secondary:
		pct, ok := s.math.Percent(o.FeeRequired, o.GetQuantity)
		if !ok {
			return entry, feeUncomputable
		}
		entry.FeeRequired = pricemath.Fixed(pct, pricemath.PercentPlaces)
		if pricemath.ComparePercent(o.FeeRequired, o.GetQuantity, s.opts.MaxFeeRequired) > 0 {
			return entry, feeAboveMax
		}
	}
	return entry, feeOK
}

// priceOrder sets side, price, amount and total. An order giving the base
// asset sells give_remaining base; otherwise it buys with give_remaining quote.
func (s *Service) priceOrder(entry *domain.BookEntry, o *domain.Order, pair domain.Pair, supplies domain.SupplyMap) error {
	giveDiv, getDiv, err := divisibility(supplies, o.GiveAsset, o.GetAsset)
	if err != nil {
		return err
	}

	if o.GiveAsset == pair.Base {
		price := pricemath.CalculatePrice(o.GiveQuantity, o.GetQuantity, giveDiv, getDiv)
		entry.Type = domain.SideSell
		entry.Price = pricemath.FixedFloat(price, pricemath.PricePlaces)
		entry.Amount = o.GiveRemaining
		entry.Total = int64(float64(o.GiveRemaining) * price)
		return nil
	}

	price := pricemath.CalculatePrice(o.GetQuantity, o.GiveQuantity, getDiv, giveDiv)
	entry.Type = domain.SideBuy
	entry.Price = pricemath.FixedFloat(price, pricemath.PricePlaces)
	entry.Total = o.GiveRemaining
	if price > 0 {
		entry.Amount = int64(float64(o.GiveRemaining) / price)
	}
	return nil
}

// SplitBook separates entries by side, buys by descending price and sells by
// ascending price. Entries of equal price keep their relative order.
func SplitBook(entries []domain.BookEntry) (buy, sell []domain.BookEntry) {
	buy = []domain.BookEntry{}
	sell = []domain.BookEntry{}
	for _, e := range entries {
		switch e.Type {
		case domain.SideBuy:
			buy = append(buy, e)
		case domain.SideSell:
			sell = append(sell, e)
		}
	}
	sort.SliceStable(buy, func(i, j int) bool {
		return priceValue(buy[i].Price).GreaterThan(priceValue(buy[j].Price))
	})
	sort.SliceStable(sell, func(i, j int) bool {
		return priceValue(sell[i].Price).LessThan(priceValue(sell[j].Price))
	})
	return buy, sell
}

func priceValue(p string) decimal.Decimal {
	d, err := decimal.NewFromString(p)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decodeOrder(row ledger.Row) domain.Order {
	return domain.Order{
		TxIndex:       row.Int64("tx_index"),
		TxHash:        row.String("tx_hash"),
		BlockIndex:    row.Int64("block_index"),
		BlockTime:     row.Int64("block_time"),
		Source:        row.String("source"),
		GiveAsset:     row.String("give_asset"),
		GiveQuantity:  row.Int64("give_quantity"),
		GiveRemaining: row.Int64("give_remaining"),
		GetAsset:      row.String("get_asset"),
		GetQuantity:   row.Int64("get_quantity"),
		GetRemaining:  row.Int64("get_remaining"),
		FeeRequired:   row.Int64("fee_required"),
		FeeProvided:   row.Int64("fee_provided"),
		Status:        row.String("status"),
	}
}
