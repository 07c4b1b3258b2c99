package dex

import (
	"context"
	"fmt"
	"sort"

	"dex-markets/internal/domain"
	"dex-markets/internal/ledger"
)

// AssetsSupply resolves supply and divisibility for assets. The primary
// reserve comes from the ledger's dedicated supply query, the secondary
// reserve has zero supply, and every other asset sums its valid issuances.
// Assets without a valid issuance are absent from the result.
func (s *Service) AssetsSupply(ctx context.Context, assets []string) (domain.SupplyMap, error) {
	r := s.opts.Reserves
	supplies := make(domain.SupplyMap, len(assets))

	var rest []string
	for _, a := range uniqueAssets(assets) {
		switch a {
		case r.Primary:
			amount, err := s.ledger.TotalSupply(ctx, a)
			if err != nil {
				return nil, fmt.Errorf("%w: total supply %s: %w", ErrDataSourceUnavailable, a, err)
			}
			supplies[a] = domain.Supply{Amount: amount, Divisible: true}
		case r.Secondary:
			supplies[a] = domain.Supply{Amount: 0, Divisible: true}
		default:
			rest = append(rest, a)
		}
	}

	if len(rest) == 0 {
		return supplies, nil
	}

	b := ledger.NewBuilder(s.ledger.Dialect())
	b.Write(`SELECT asset, SUM(quantity) AS supply, divisible FROM issuances
	         WHERE asset IN (`+ledger.Placeholders(len(rest))+`) `, ledger.Args(rest)...)
	b.Write(`AND status = ?
	         GROUP BY asset, divisible
	         ORDER BY asset`, "valid")

	rows, err := s.query(ctx, "issuance_supply", b)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		asset := row.String("asset")
		if prev, ok := supplies[asset]; ok {
			// divisibility is fixed by the first issuance
			prev.Amount += row.Int64("supply")
			supplies[asset] = prev
			continue
		}
		supplies[asset] = domain.Supply{Amount: row.Int64("supply"), Divisible: row.Bool("divisible")}
	}
	return supplies, nil
}

// supplyOf looks up an asset, classifying absence as ErrMissingSupply.
func supplyOf(supplies domain.SupplyMap, asset string) (domain.Supply, error) {
	sup, ok := supplies[asset]
	if !ok {
		return domain.Supply{}, fmt.Errorf("%w: %s", ErrMissingSupply, asset)
	}
	return sup, nil
}

// divisibility looks up both assets of a quantity pair.
func divisibility(supplies domain.SupplyMap, a, b string) (bool, bool, error) {
	sa, err := supplyOf(supplies, a)
	if err != nil {
		return false, false, err
	}
	sb, err := supplyOf(supplies, b)
	if err != nil {
		return false, false, err
	}
	return sa.Divisible, sb.Divisible, nil
}

// uniqueAssets returns the sorted distinct non-empty assets. The input is not modified.
func uniqueAssets(assets []string) []string {
	seen := make(map[string]struct{}, len(assets))
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
