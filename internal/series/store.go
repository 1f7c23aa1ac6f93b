// Package series holds the immutable time-ordered point stores that every
// other stage of the engine reads from.
package series

import (
	"math"
	"slices"
	"sort"
)

// Store is an immutable, time-ordered sequence of points for one channel.
// Aggregates over the valid values are computed once at construction, so a
// Store can be shared between goroutines without locking.
type Store struct {
	name   string
	points []Point

	validCount int
	sum        float64
	min        float64
	max        float64
}

// New builds a Store named name from points. Points whose timestamp is lower
// than the last accepted timestamp are dropped rather than reordered. The
// input slice is copied.
func New(name string, points []Point) *Store {
	ordered := make([]Point, 0, len(points))
	for _, p := range points {
		if n := len(ordered); n > 0 && p.Timestamp < ordered[n-1].Timestamp {
			continue
		}
		ordered = append(ordered, p)
	}
	return newStore(name, ordered)
}

// newStore wraps points that are already known to be ordered.
func newStore(name string, points []Point) *Store {
	s := &Store{name: name, points: points, min: math.Inf(1), max: math.Inf(-1)}
	for _, p := range points {
		if !p.Valid {
			continue
		}
		s.validCount++
		s.sum += p.Value
		s.min = min(s.min, p.Value)
		s.max = max(s.max, p.Value)
	}
	return s
}

// Name returns the channel name the store was built for.
func (s *Store) Name() string { return s.name }

// Len returns the number of points, gap markers included.
func (s *Store) Len() int { return len(s.points) }

// ValidCount returns the number of points carrying a value.
func (s *Store) ValidCount() int { return s.validCount }

// Points returns a copy of the store's points.
func (s *Store) Points() []Point { return slices.Clone(s.points) }

// At returns the point at index i.
func (s *Store) At(i int) (Point, error) {
	if i < 0 || i >= len(s.points) {
		return Point{}, ErrIndexOutOfRange
	}
	return s.points[i], nil
}

// Range returns the timestamps of the first and last point.
func (s *Store) Range() (TimeRange, error) {
	if len(s.points) == 0 {
		return TimeRange{}, ErrEmptyStore
	}
	return TimeRange{Begin: s.points[0].Timestamp, End: s.points[len(s.points)-1].Timestamp}, nil
}

// Avg returns the mean of the valid values.
func (s *Store) Avg() (float64, error) {
	if s.validCount == 0 {
		return 0, ErrEmptyStore
	}
	return s.sum / float64(s.validCount), nil
}

// Min returns the smallest valid value.
func (s *Store) Min() (float64, error) {
	if s.validCount == 0 {
		return 0, ErrEmptyStore
	}
	return s.min, nil
}

// Max returns the largest valid value.
func (s *Store) Max() (float64, error) {
	if s.validCount == 0 {
		return 0, ErrEmptyStore
	}
	return s.max, nil
}

// Crop returns a new store holding the points with r.Begin <= ts <= r.End.
// The result shares the receiver's backing array, which is safe because
// neither store is ever mutated.
func (s *Store) Crop(r TimeRange) *Store {
	if r.End < r.Begin {
		return newStore(s.name, nil)
	}
	lo := s.Bisect(r.Begin, 0)
	hi := len(s.points)
	if r.End < math.MaxInt64 {
		hi = s.Bisect(r.End+1, lo)
	}
	return newStore(s.name, s.points[lo:hi:hi])
}

// Bisect returns the index of the first point whose timestamp is >= ts, or
// Len() when there is none. The search gallops outward from hint before
// narrowing with a binary search, so a good hint makes repeated lookups
// around a cursor cheap. Any hint value is accepted.
func (s *Store) Bisect(ts int64, hint int) int {
	n := len(s.points)
	if n == 0 {
		return 0
	}
	hint = max(0, min(hint, n-1))

	var lo, hi int
	if s.points[hint].Timestamp >= ts {
		if hint == 0 || s.points[hint-1].Timestamp < ts {
			return hint
		}
		hi = hint
		for step := 1; ; step *= 2 {
			probe := hint - step
			if probe < 0 {
				lo = 0
				break
			}
			if s.points[probe].Timestamp < ts {
				lo = probe + 1
				break
			}
			hi = probe
		}
	} else {
		lo = hint + 1
		for step := 1; ; step *= 2 {
			probe := hint + step
			if probe >= n {
				hi = n
				break
			}
			if s.points[probe].Timestamp >= ts {
				hi = probe
				break
			}
			lo = probe + 1
		}
	}
	return lo + sort.Search(hi-lo, func(i int) bool {
		return s.points[lo+i].Timestamp >= ts
	})
}
