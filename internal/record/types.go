// Package record defines the decoded row shape handed to the engine by
// whatever reads the raw data (CSV text, FIT files, Kafka messages).
package record

import (
	"fmt"
	"math"
)

// Field is one positional value of a row. A zero Field is absent.
type Field struct {
	Value float64
	Valid bool
}

// Num returns a present field holding v. NaN and infinities are treated as
// absent.
func Num(v float64) Field {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Field{}
	}
	return Field{Value: v, Valid: true}
}

// Null is the absent field.
var Null = Field{}

// Row is an ordered sequence of fields keyed by position.
type Row []Field

// Of builds a row where every value is present. Handy in tests and for
// sources that never produce holes.
func Of(values ...float64) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = Num(v)
	}
	return row
}

// Float returns the value at index i. It reports false when the index is
// outside the row or the field is absent.
func (r Row) Float(i int) (float64, bool) {
	if i < 0 || i >= len(r) || !r[i].Valid {
		return 0, false
	}
	return r[i].Value, true
}

// Snippet renders the row for log output, truncated to maxLength characters.
func (r Row) Snippet(maxLength int) string {
	if maxLength <= 0 {
		return "..."
	}
	s := fmt.Sprint(r.values())
	if len(s) > maxLength {
		return s[:maxLength] + "..."
	}
	return s
}

func (r Row) values() []any {
	out := make([]any, len(r))
	for i, f := range r {
		if f.Valid {
			out[i] = f.Value
		} else {
			out[i] = nil
		}
	}
	return out
}
