package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// toFloat converts a database cell to float64. NULL and anything that does not
// parse as a number become NaN, which every statistic below skips.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int16:
		return float64(x)
	case int8:
		return float64(x)
	case int:
		return float64(x)
	case uint64:
		return float64(x)
	case uint32:
		return float64(x)
	case uint16:
		return float64(x)
	case uint8:
		return float64(x)
	case uint:
		return float64(x)
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	case []byte:
		return parseNumber(string(x))
	case string:
		return parseNumber(x)
	default:
		return math.NaN()
	}
}

// parseNumber accepts plain and exponent notation plus money renderings such
// as "$1,234.50" or "($12.00)".
func parseNumber(s string) float64 {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return math.NaN()
	}
	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = raw[1 : len(raw)-1]
	}
	raw = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return math.NaN()
	}
	f, _ := d.Float64()
	if neg {
		f = -f
	}
	return f
}

// floats converts a column to float64 values in row order.
func floats(col []any) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = toFloat(v)
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano, time.RFC3339,
	"2006-01-02 15:04:05.999999999-07", "2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999", "2006-01-02",
	"15:04:05.999999999", "15:04",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type sortKey struct {
	null   bool
	isTime bool
	t      time.Time
	isNum  bool
	f      float64
	s      string
}

func makeSortKey(v any) sortKey {
	switch x := v.(type) {
	case nil:
		return sortKey{null: true}
	case time.Time:
		return sortKey{isTime: true, t: x}
	case []byte:
		return makeSortKey(string(x))
	case string:
		s := strings.TrimSpace(x)
		if t, ok := parseTimeMaybe(s); ok {
			return sortKey{isTime: true, t: t, s: s}
		}
		return sortKey{s: s}
	}
	if f := toFloat(v); !math.IsNaN(f) {
		return sortKey{isNum: true, f: f}
	}
	return sortKey{s: fmt.Sprint(v)}
}

func (a sortKey) less(b sortKey) bool {
	switch {
	case a.null:
		return false
	case b.null:
		return true
	case a.isTime && b.isTime:
		return a.t.Before(b.t)
	case a.isNum && b.isNum:
		return a.f < b.f
	default:
		return a.s < b.s
	}
}

// sortedOrder returns row indices ordered by keys ascending. Ties keep source
// order and NULL keys sort last.
func sortedOrder(keys []any) []int {
	sk := make([]sortKey, len(keys))
	idx := make([]int, len(keys))
	for i, k := range keys {
		sk[i] = makeSortKey(k)
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return sk[idx[i]].less(sk[idx[j]]) })
	return idx
}
