package rollup

import "errors"

var (
	ErrInvalidWindow     = errors.New("rollup window duration must be at least one millisecond")
	ErrUnknownAggregator = errors.New("unknown rollup aggregator")
)
