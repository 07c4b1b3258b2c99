package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger reads a PostgreSQL mirror of the ledger tables.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a ledger over an existing pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

var _ Ledger = (*PostgresLedger)(nil)

// Dialect returns Postgres.
func (l *PostgresLedger) Dialect() Dialect {
	return Postgres
}

// Execute runs query and materializes every row.
func (l *PostgresLedger) Execute(ctx context.Context, query string, bindings []any) ([]Row, error) {
	rows, err := l.pool.Query(ctx, query, bindings...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var result []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read ledger row: %w", err)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[f.Name] = normalizePostgres(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return result, nil
}

// TotalSupply sums the credit and debit journals of asset.
func (l *PostgresLedger) TotalSupply(ctx context.Context, asset string) (int64, error) {
	q, args := supplyQuery(Postgres, asset)
	rows, err := l.Execute(ctx, q, args)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int64("supply"), nil
}

// normalizePostgres converts driver-specific values into types Row understands.
func normalizePostgres(v any) any {
	switch n := v.(type) {
	case pgtype.Numeric:
		if !n.Valid {
			return nil
		}
		b, err := n.MarshalJSON()
		if err != nil {
			return nil
		}
		return json.Number(b)
	case time.Time:
		return n.Unix()
	default:
		return v
	}
}
