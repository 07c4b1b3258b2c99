package ledger

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect is the SQL flavour of a ledger backend.
type Dialect struct {
	Name         string
	Numbered     bool   // $1, $2 ... instead of ?
	LeastFunc    string // scalar two-argument minimum
	GreatestFunc string // scalar two-argument maximum
}

// Supported dialects.
var (
	SQLite     = Dialect{Name: "sqlite", LeastFunc: "MIN", GreatestFunc: "MAX"}
	Postgres   = Dialect{Name: "postgres", Numbered: true, LeastFunc: "LEAST", GreatestFunc: "GREATEST"}
	ClickHouse = Dialect{Name: "clickhouse", LeastFunc: "least", GreatestFunc: "greatest"}
)

// Least renders the scalar minimum of two expressions.
func (d Dialect) Least(a, b string) string {
	return fmt.Sprintf("%s(%s, %s)", d.LeastFunc, a, b)
}

// Greatest renders the scalar maximum of two expressions.
func (d Dialect) Greatest(a, b string) string {
	return fmt.Sprintf("%s(%s, %s)", d.GreatestFunc, a, b)
}

// Builder assembles a query and its positional bindings. Fragments use '?'
// placeholders; Build renders them for the dialect.
type Builder struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

// NewBuilder creates a query builder for d.
func NewBuilder(d Dialect) *Builder {
	return &Builder{dialect: d}
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Write appends a fragment and the bindings for its placeholders.
func (b *Builder) Write(fragment string, args ...any) *Builder {
	b.sb.WriteString(fragment)
	b.args = append(b.args, args...)
	return b
}

// Build returns the final query text and bindings.
func (b *Builder) Build() (string, []any) {
	q := b.sb.String()
	if b.dialect.Numbered {
		q = numberPlaceholders(q)
	}
	args := make([]any, len(b.args))
	copy(args, b.args)
	return q, args
}

// Placeholders returns n comma-separated '?' placeholders.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Args converts a typed slice into bindings.
func Args[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// numberPlaceholders rewrites '?' outside string literals as $1, $2, ...
func numberPlaceholders(q string) string {
	var sb strings.Builder
	sb.Grow(len(q) + 16)
	n := 0
	inLiteral := false
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case c == '\'':
			inLiteral = !inLiteral
			sb.WriteByte(c)
		case c == '?' && !inLiteral:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
