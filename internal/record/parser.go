package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseStrings converts textual fields, as produced by a CSV reader, into a
// Row. Empty or non-numeric fields become absent rather than failing the
// whole row.
func ParseStrings(fields []string) Row {
	row := make(Row, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		row[i] = Num(v)
	}
	return row
}

// ParseJSON parses a JSON array such as `[12, 3.5, null]` into a Row.
// Elements that are not numbers become absent fields.
func ParseJSON(data []byte) (Row, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotAnArray
		}
		return nil, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}

	row := make(Row, len(raw))
	for i, elem := range raw {
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			continue
		}
		var v float64
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}
		row[i] = Num(v)
	}
	return row, nil
}

// MarshalJSON encodes the row as a JSON array with nulls for absent fields.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values())
}
