// Package rollup downsamples series stores into fixed, epoch-aligned windows.
package rollup

import (
	"slices"
	"time"

	"github.com/sanspareilsmyn/ridelens/internal/series"
)

// Level is one fixed-window aggregation of a base channel.
type Level struct {
	Window time.Duration
	Store  *series.Store
}

// Rollup partitions store into consecutive windows of the given width, aligned
// so that a point belongs to window floor(ts / window). Each emitted point is
// stamped with its window's start time. A window that received points but no
// valid values yields a gap marker; windows that received nothing at all are
// not emitted. A nil aggregator means Avg.
func Rollup(store *series.Store, window time.Duration, agg Aggregator) (*series.Store, error) {
	width := window.Milliseconds()
	if width <= 0 {
		return nil, ErrInvalidWindow
	}
	if agg == nil {
		agg = Avg
	}

	var (
		out     []series.Point
		values  []float64
		current int64
		open    bool
	)
	flush := func() {
		if !open {
			return
		}
		if len(values) == 0 {
			out = append(out, series.Gap(current))
		} else {
			out = append(out, series.Value(current, agg.Aggregate(values)))
		}
		values = values[:0]
	}

	for i := 0; i < store.Len(); i++ {
		p, _ := store.At(i)
		start := windowStart(p.Timestamp, width)
		if !open || start != current {
			flush()
			current = start
			open = true
		}
		if p.Valid {
			values = append(values, p.Value)
		}
	}
	flush()

	return series.New(store.Name(), out), nil
}

// Levels rolls store up once per distinct window and returns the levels
// ordered from finest to coarsest.
func Levels(store *series.Store, windows []time.Duration, agg Aggregator) ([]Level, error) {
	sorted := slices.Clone(windows)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	levels := make([]Level, 0, len(sorted))
	for _, w := range sorted {
		rolled, err := Rollup(store, w, agg)
		if err != nil {
			return nil, err
		}
		levels = append(levels, Level{Window: w, Store: rolled})
	}
	return levels, nil
}

// windowStart floors ts to a multiple of width, rounding toward negative
// infinity for timestamps before the epoch.
func windowStart(ts, width int64) int64 {
	idx := ts / width
	if ts%width != 0 && ts < 0 {
		idx--
	}
	return idx * width
}
