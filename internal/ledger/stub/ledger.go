// Package stub provides a scripted in-memory ledger for tests.
package stub

import (
	"context"
	"strings"
	"sync"

	"dex-markets/internal/ledger"
)

// Call records one executed query.
type Call struct {
	Query    string
	Bindings []any
}

// HandlerFunc answers a query.
type HandlerFunc func(query string, bindings []any) ([]ledger.Row, error)

type handler struct {
	fragments []string
	fn        HandlerFunc
}

// Ledger implements ledger.Ledger for testing. Queries are answered by the
// first handler whose fragments all occur in the query text; unmatched
// queries return no rows.
type Ledger struct {
	mu        sync.Mutex
	dialect   ledger.Dialect
	handlers  []handler
	calls     []Call
	Supply    int64
	SupplyErr error
	Err       error // returned by every Execute when set
}

// NewLedger creates a new stub ledger speaking the SQLite dialect.
func NewLedger() *Ledger {
	return &Ledger{dialect: ledger.SQLite}
}

// WithDialect switches the dialect reported to callers.
func (l *Ledger) WithDialect(d ledger.Dialect) *Ledger {
	l.dialect = d
	return l
}

// On registers fn for queries containing every fragment.
func (l *Ledger) On(fn HandlerFunc, fragments ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, handler{fragments: fragments, fn: fn})
}

// OnRows registers a fixed result for queries containing every fragment.
func (l *Ledger) OnRows(rows []ledger.Row, fragments ...string) {
	l.On(func(string, []any) ([]ledger.Row, error) { return rows, nil }, fragments...)
}

// Execute records the call and dispatches it to the matching handler.
func (l *Ledger) Execute(_ context.Context, query string, bindings []any) ([]ledger.Row, error) {
	l.mu.Lock()
	l.calls = append(l.calls, Call{Query: query, Bindings: bindings})
	err := l.Err
	handlers := l.handlers
	l.mu.Unlock()

	if err != nil {
		return nil, err
	}
	for _, h := range handlers {
		if matches(query, h.fragments) {
			return h.fn(query, bindings)
		}
	}
	return nil, nil
}

// TotalSupply returns the configured supply.
func (l *Ledger) TotalSupply(_ context.Context, _ string) (int64, error) {
	return l.Supply, l.SupplyErr
}

// Dialect returns the configured dialect.
func (l *Ledger) Dialect() ledger.Dialect {
	return l.dialect
}

// Calls returns a copy of every executed query.
func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// CallsMatching returns executed queries containing every fragment.
func (l *Ledger) CallsMatching(fragments ...string) []Call {
	var out []Call
	for _, c := range l.Calls() {
		if matches(c.Query, fragments) {
			out = append(out, c)
		}
	}
	return out
}

func matches(query string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(query, f) {
			return false
		}
	}
	return true
}

var _ ledger.Ledger = (*Ledger)(nil)
