// Package ledger provides read access to the exchange ledger (orders, order
// matches, issuances, blocks) through a query service that executes
// parameterized SQL and returns rows.
package ledger

import "context"

// Ledger executes read-only queries against the exchange ledger.
type Ledger interface {
	// Execute runs a parameterized query. Placeholders must already be in the
	// form expected by Dialect().
	Execute(ctx context.Context, query string, bindings []any) ([]Row, error)

	// TotalSupply returns the circulating supply of the primary reserve asset.
	TotalSupply(ctx context.Context, asset string) (int64, error)

	// Dialect describes the SQL flavour accepted by Execute.
	Dialect() Dialect
}

// supplyQuery computes an asset's supply from the credit and debit journals.
// Used by backends that read the ledger tables directly.
func supplyQuery(d Dialect, asset string) (string, []any) {
	b := NewBuilder(d)
	b.Write(`SELECT (SELECT COALESCE(SUM(quantity), 0) FROM credits WHERE asset = ?)
	              - (SELECT COALESCE(SUM(quantity), 0) FROM debits WHERE asset = ?) AS supply`, asset, asset)
	return b.Build()
}
