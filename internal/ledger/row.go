package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// String returns the column as a string, or "" when absent.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Int64 returns the column as an integer. Fractional values are truncated;
// absent or unparseable values yield 0.
func (r Row) Int64(key string) int64 {
	n, _ := toInt64(r[key])
	return n
}

// Bool returns the column as a boolean. Integers are true when non-zero.
func (r Row) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		n, ok := toInt64(v)
		return ok && n != 0
	}
}

// Has reports whether the column is present and non-null.
func (r Row) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return math.MaxInt64, true
		}
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		return parseIntString(n.String())
	case string:
		return parseIntString(n)
	case []byte:
		return parseIntString(string(n))
	case decimal.Decimal:
		return n.IntPart(), true
	case *big.Int:
		if n == nil {
			return 0, false
		}
		return n.Int64(), true
	case time.Time:
		return n.Unix(), true
	default:
		return 0, false
	}
}

func parseIntString(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.IntPart(), true
}
