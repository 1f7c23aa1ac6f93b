package record

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON row")
	ErrNotAnArray          = errors.New("JSON row must be an array of numbers or nulls")
)
