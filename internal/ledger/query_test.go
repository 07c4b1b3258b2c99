package ledger

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuilder_SQLiteKeepsQuestionMarks(t *testing.T) {
	b := NewBuilder(SQLite)
	b.Write(`SELECT * FROM orders WHERE status = ? `, "open")
	b.Write(`AND source IN (`+Placeholders(2)+`)`, Args([]string{"a", "b"})...)

	q, args := b.Build()
	assert.Equal(t, `SELECT * FROM orders WHERE status = ? AND source IN (?, ?)`, q)
	assert.Equal(t, []any{"open", "a", "b"}, args)
}

func TestBuilder_PostgresNumbersPlaceholders(t *testing.T) {
	b := NewBuilder(Postgres)
	b.Write(`SELECT (a || '/' || b) AS pair, '?' AS literal FROM t WHERE x = ? AND y IN (?, ?)`, 1, 2, 3)

	q, args := b.Build()
	assert.Equal(t, `SELECT (a || '/' || b) AS pair, '?' AS literal FROM t WHERE x = $1 AND y IN ($2, $3)`, q)
	assert.Len(t, args, 3)
}

func TestBuilder_BuildCopiesArgs(t *testing.T) {
	b := NewBuilder(SQLite).Write(`?`, "x")
	_, args := b.Build()
	args[0] = "mutated"

	_, again := b.Build()
	assert.Equal(t, []any{"x"}, again)
}

func TestDialect_LeastGreatest(t *testing.T) {
	tests := []struct {
		dialect  Dialect
		least    string
		greatest string
	}{
		{SQLite, "MIN(a, b)", "MAX(a, b)"},
		{Postgres, "LEAST(a, b)", "GREATEST(a, b)"},
		{ClickHouse, "least(a, b)", "greatest(a, b)"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name, func(t *testing.T) {
			assert.Equal(t, tt.least, tt.dialect.Least("a", "b"))
			assert.Equal(t, tt.greatest, tt.dialect.Greatest("a", "b"))
		})
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", Placeholders(0))
	assert.Equal(t, "?", Placeholders(1))
	assert.Equal(t, "?, ?, ?", Placeholders(3))
}

func TestSupplyQuery(t *testing.T) {
	q, args := supplyQuery(Postgres, "SHP")
	assert.Contains(t, q, "FROM credits WHERE asset = $1")
	assert.Contains(t, q, "FROM debits WHERE asset = $2")
	assert.Equal(t, []any{"SHP", "SHP"}, args)
}

func TestRow_Int64(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	row := Row{
		"int":     int64(42),
		"uint":    uint32(7),
		"float":   float64(3.9),
		"number":  json.Number("100000000000"),
		"string":  "55",
		"bytes":   []byte("66"),
		"decimal": decimal.RequireFromString("123.45"),
		"big":     big.NewInt(99),
		"time":    ts,
		"garbage": "abc",
	}

	assert.Equal(t, int64(42), row.Int64("int"))
	assert.Equal(t, int64(7), row.Int64("uint"))
	assert.Equal(t, int64(3), row.Int64("float"))
	assert.Equal(t, int64(100000000000), row.Int64("number"))
	assert.Equal(t, int64(55), row.Int64("string"))
	assert.Equal(t, int64(66), row.Int64("bytes"))
	assert.Equal(t, int64(123), row.Int64("decimal"))
	assert.Equal(t, int64(99), row.Int64("big"))
	assert.Equal(t, int64(1700000000), row.Int64("time"))
	assert.Zero(t, row.Int64("garbage"))
	assert.Zero(t, row.Int64("missing"))
}

func TestRow_StringAndBool(t *testing.T) {
	row := Row{
		"s":      "FOO",
		"b":      []byte("BAR"),
		"n":      json.Number("12"),
		"i":      int64(5),
		"true":   true,
		"one":    int64(1),
		"zero":   json.Number("0"),
		"strue":  "true",
		"absent": nil,
	}

	assert.Equal(t, "FOO", row.String("s"))
	assert.Equal(t, "BAR", row.String("b"))
	assert.Equal(t, "12", row.String("n"))
	assert.Equal(t, "5", row.String("i"))
	assert.Equal(t, "", row.String("absent"))

	assert.True(t, row.Bool("true"))
	assert.True(t, row.Bool("one"))
	assert.False(t, row.Bool("zero"))
	assert.True(t, row.Bool("strue"))
	assert.False(t, row.Bool("absent"))

	assert.True(t, row.Has("s"))
	assert.False(t, row.Has("absent"))
	assert.False(t, row.Has("missing"))
}
