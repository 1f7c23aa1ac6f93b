// Package viewport answers display queries against a loaded dataset: which
// resolution to draw for a visible range, and what value sits under the
// tracker.
package viewport

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/sanspareilsmyn/ridelens/internal/rollup"
	"github.com/sanspareilsmyn/ridelens/internal/series"
)

// Source is a channel with its raw store and its rollup levels, finest first.
type Source interface {
	Raw() *series.Store
	Levels() []rollup.Level
}

// SelectResolution picks the store to draw for visible at pixelWidth and
// crops it to visible.
//
// A rollup level qualifies when its window is shorter than two pixels' worth
// of time. The coarsest qualifying level wins; with no qualifying level the
// raw store is used.
func SelectResolution(src Source, visible series.TimeRange, pixelWidth int) (*series.Store, error) {
	store, err := pick(src, visible, pixelWidth)
	if err != nil {
		return nil, err
	}
	return store.Crop(visible), nil
}

// Window reports the rollup window SelectResolution would use, zero for raw.
func Window(src Source, visible series.TimeRange, pixelWidth int) (time.Duration, error) {
	if pixelWidth <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPixelWidth, pixelWidth)
	}
	var span uint64
	if visible.End > visible.Begin {
		span = uint64(visible.End - visible.Begin)
	}
	var chosen time.Duration
	for _, l := range src.Levels() {
		if finerThanTwoPixels(l.Window, span, pixelWidth) && l.Window > chosen {
			chosen = l.Window
		}
	}
	return chosen, nil
}

// finerThanTwoPixels reports window < 2*spanMs/pixelWidth, compared as
// window*pixelWidth < 2*spanMs in 128 bits.
func finerThanTwoPixels(window time.Duration, spanMs uint64, pixelWidth int) bool {
	ms := window.Milliseconds()
	if ms <= 0 {
		return false
	}
	lhsHi, lhsLo := bits.Mul64(uint64(ms), uint64(pixelWidth))
	rhsHi, rhsLo := bits.Mul64(spanMs, 2)
	return lhsHi < rhsHi || (lhsHi == rhsHi && lhsLo < rhsLo)
}

func pick(src Source, visible series.TimeRange, pixelWidth int) (*series.Store, error) {
	window, err := Window(src, visible, pixelWidth)
	if err != nil {
		return nil, err
	}
	if window == 0 {
		return src.Raw(), nil
	}
	for _, l := range src.Levels() {
		if l.Window == window {
			return l.Store, nil
		}
	}
	return src.Raw(), nil
}

// TrackerValue returns the value of the first point at or after tracker in
// store. The lookup starts from the index the tracker's linear position in
// visible suggests. It reports false when the tracker is outside visible,
// past the last point, or lands on a gap.
func TrackerValue(store *series.Store, visible series.TimeRange, tracker int64) (float64, bool) {
	n := store.Len()
	if n == 0 || !visible.Contains(tracker) {
		return 0, false
	}

	hint := 0
	if span := visible.End - visible.Begin; span > 0 {
		frac := float64(tracker-visible.Begin) / float64(span)
		hint = int(math.Floor(frac * float64(n)))
	}
	i := store.Bisect(tracker, hint)

	p, err := store.At(i)
	if err != nil || !p.Valid {
		return 0, false
	}
	return p.Value, true
}
