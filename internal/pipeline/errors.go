package pipeline

import "errors"

var (
	ErrEmptyInput     = errors.New("dataset has no usable rows")
	ErrLoadSuperseded = errors.New("load superseded by a newer load")
	ErrSourceFailed   = errors.New("failed to read rows from source")
	ErrRollupFailed   = errors.New("failed to build rollups")
	ErrInvalidOptions = errors.New("invalid pipeline options")
)
