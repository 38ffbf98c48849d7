// Package analytics computes grouped statistics over the flattened history
// tables. Every function is pure, keeps the input order for first-seen and
// tie-break decisions and returns ErrNoData for empty input.
package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when there is nothing to aggregate. It is a normal
// outcome, not a failure.
var ErrNoData = errors.New("no data")

// StructuralError reports a row missing a field the aggregation needs.
type StructuralError struct {
	Table string
	Field string
	Row   int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s table: row %d has no %s", e.Table, e.Row, e.Field)
}

// DefaultTopN is the ranking length used when none is given.
const DefaultTopN = 10

// day truncates t to its UTC calendar day.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// toFloat coerces a stored value to a number; ok is false for anything that
// is not numeric.
func toFloat(v any) (f float64, ok bool) {
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(n), 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// mean accumulates running averages for a fixed number of columns.
type mean struct {
	sums  []float64
	count int
}

func newMean(cols int) *mean {
	return &mean{sums: make([]float64, cols)}
}

func (m *mean) add(vals ...float64) {
	for i, v := range vals {
		m.sums[i] += v
	}
	m.count++
}

func (m *mean) value(i int) float64 {
	if m.count == 0 {
		return 0
	}
	return m.sums[i] / float64(m.count)
}
