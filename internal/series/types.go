package series

import "time"

// Point is one sample of a channel. A point with Valid set to false is a gap
// marker: it carries a timestamp but no value, which breaks line continuity
// when rendered.
type Point struct {
	Timestamp int64 // milliseconds since epoch
	Value     float64
	Valid     bool
}

// Value returns a point carrying v at timestamp ts.
func Value(ts int64, v float64) Point {
	return Point{Timestamp: ts, Value: v, Valid: true}
}

// Gap returns an absent-value point at timestamp ts.
func Gap(ts int64) Point {
	return Point{Timestamp: ts}
}

// TimeRange is a closed interval [Begin, End] in epoch milliseconds.
type TimeRange struct {
	Begin int64
	End   int64
}

// NewTimeRange orders a and b so that Begin <= End.
func NewTimeRange(a, b int64) TimeRange {
	if b < a {
		a, b = b, a
	}
	return TimeRange{Begin: a, End: b}
}

// Duration returns the length of the range.
func (r TimeRange) Duration() time.Duration {
	return time.Duration(r.End-r.Begin) * time.Millisecond
}

// Contains reports whether ts lies within the closed range.
func (r TimeRange) Contains(ts int64) bool {
	return ts >= r.Begin && ts <= r.End
}

// Union returns the smallest range covering both r and o.
func (r TimeRange) Union(o TimeRange) TimeRange {
	return TimeRange{Begin: min(r.Begin, o.Begin), End: max(r.End, o.End)}
}
