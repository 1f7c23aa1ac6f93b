package viewport

import (
	"fmt"
	"time"

	"github.com/sanspareilsmyn/ridelens/internal/pipeline"
	"github.com/sanspareilsmyn/ridelens/internal/series"
)

// ViewState is the display state owned by the consumer of a dataset. The
// dataset itself is never modified through it.
type ViewState struct {
	Visible    series.TimeRange
	Visibility map[string]bool

	tracker    int64
	hasTracker bool
}

// NewViewState seeds visibility from each channel's InitiallyVisible flag.
func NewViewState(ds *pipeline.Dataset, visible series.TimeRange) *ViewState {
	vs := &ViewState{Visible: visible, Visibility: make(map[string]bool)}
	for _, c := range ds.Channels() {
		vs.Visibility[c.Name()] = c.Spec.InitiallyVisible
	}
	return vs
}

// SetRange replaces the visible range.
func (v *ViewState) SetRange(r series.TimeRange) { v.Visible = r }

// SetTracker places the tracker at ts.
func (v *ViewState) SetTracker(ts int64) {
	v.tracker = ts
	v.hasTracker = true
}

// ClearTracker removes the tracker.
func (v *ViewState) ClearTracker() {
	v.tracker = 0
	v.hasTracker = false
}

// Tracker returns the tracker position, if any.
func (v *ViewState) Tracker() (int64, bool) { return v.tracker, v.hasTracker }

// IsVisible reports whether the named channel is shown.
func (v *ViewState) IsVisible(name string) bool { return v.Visibility[name] }

// Toggle flips the named channel's visibility and returns the new value.
func (v *ViewState) Toggle(name string) bool {
	if v.Visibility == nil {
		v.Visibility = make(map[string]bool)
	}
	v.Visibility[name] = !v.Visibility[name]
	return v.Visibility[name]
}

// Clamp fits requested inside domain. A range narrower than minDuration is
// widened around its centre; a range wider than the domain becomes the
// domain.
func Clamp(requested, domain series.TimeRange, minDuration time.Duration) series.TimeRange {
	r := series.NewTimeRange(requested.Begin, requested.End)
	minSpan := minDuration.Milliseconds()
	domainSpan := domain.End - domain.Begin

	if span := r.End - r.Begin; span < minSpan {
		centre := r.Begin + span/2
		r.Begin = centre - minSpan/2
		r.End = r.Begin + minSpan
	}
	if r.End-r.Begin >= domainSpan {
		return domain
	}
	if r.Begin < domain.Begin {
		r.End += domain.Begin - r.Begin
		r.Begin = domain.Begin
	}
	if r.End > domain.End {
		r.Begin -= r.End - domain.End
		r.End = domain.End
	}
	return r
}

// Reading is one channel's value under the tracker.
type Reading struct {
	Channel string
	Label   string
	Units   string
	Value   float64
	Valid   bool
	Text    string
}

// Readout resolves the tracker against every visible channel, in dataset
// order. Without a tracker every reading is invalid.
func Readout(ds *pipeline.Dataset, state *ViewState, pixelWidth int) ([]Reading, error) {
	if ds == nil {
		return nil, ErrNoDataset
	}
	tracker, hasTracker := state.Tracker()

	readings := make([]Reading, 0, len(ds.Names()))
	for _, c := range ds.Channels() {
		if !state.IsVisible(c.Name()) {
			continue
		}
		r := Reading{Channel: c.Name(), Label: c.Spec.Label, Units: c.Spec.Units, Text: "-"}
		if hasTracker {
			store, err := SelectResolution(c, state.Visible, pixelWidth)
			if err != nil {
				return nil, err
			}
			r.Value, r.Valid = TrackerValue(store, state.Visible, tracker)
			if r.Valid {
				r.Text = c.Spec.Format(r.Value)
			}
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// FormatTracker renders the tracker's offset from origin as h:mm:ss, or
// -:--:-- when no tracker is set.
func FormatTracker(state *ViewState, origin int64) string {
	tracker, ok := state.Tracker()
	if !ok {
		return "-:--:--"
	}
	elapsed := max(time.Duration(tracker-origin)*time.Millisecond, 0)
	h := int(elapsed / time.Hour)
	m := int(elapsed % time.Hour / time.Minute)
	s := int(elapsed % time.Minute / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
