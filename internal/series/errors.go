package series

import "errors"

var (
	ErrEmptyStore      = errors.New("series store has no points")
	ErrIndexOutOfRange = errors.New("point index out of range")
)
