package ledger

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseLedger reads a ClickHouse replica of the ledger tables.
type ClickHouseLedger struct {
	conn driver.Conn
}

// NewClickHouseLedger creates a ledger over an open connection.
func NewClickHouseLedger(conn driver.Conn) *ClickHouseLedger {
	return &ClickHouseLedger{conn: conn}
}

var _ Ledger = (*ClickHouseLedger)(nil)

// Dialect returns ClickHouse.
func (l *ClickHouseLedger) Dialect() Dialect {
	return ClickHouse
}

// Execute runs query and scans each column into its driver scan type.
func (l *ClickHouseLedger) Execute(ctx context.Context, query string, bindings []any) ([]Row, error) {
	rows, err := l.conn.Query(ctx, query, bindings...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	columns := rows.ColumnTypes()
	var result []Row
	for rows.Next() {
		dest := make([]any, len(columns))
		for i, col := range columns {
			dest[i] = reflect.New(col.ScanType()).Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col.Name()] = deref(reflect.ValueOf(dest[i]))
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return result, nil
}

// TotalSupply sums the credit and debit journals of asset.
func (l *ClickHouseLedger) TotalSupply(ctx context.Context, asset string) (int64, error) {
	q, args := supplyQuery(ClickHouse, asset)
	rows, err := l.Execute(ctx, q, args)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int64("supply"), nil
}

// deref follows pointers until a concrete value; nil pointers become nil.
func deref(v reflect.Value) any {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}
