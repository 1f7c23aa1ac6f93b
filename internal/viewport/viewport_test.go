package viewport

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/channel"
	"github.com/sanspareilsmyn/ridelens/internal/pipeline"
	"github.com/sanspareilsmyn/ridelens/internal/record"
	"github.com/sanspareilsmyn/ridelens/internal/rollup"
	"github.com/sanspareilsmyn/ridelens/internal/series"
)

type fakeChannel struct {
	raw    *series.Store
	levels []rollup.Level
}

func (f fakeChannel) Raw() *series.Store     { return f.raw }
func (f fakeChannel) Levels() []rollup.Level { return f.levels }

func everySecond(name string, n int) *series.Store {
	points := make([]series.Point, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, series.Value(int64(i)*1000, float64(i)))
	}
	return series.New(name, points)
}

func newFakeChannel(t *testing.T, windows ...time.Duration) fakeChannel {
	t.Helper()
	raw := everySecond("power", 600)
	levels, err := rollup.Levels(raw, windows, rollup.Avg)
	require.NoError(t, err)
	return fakeChannel{raw: raw, levels: levels}
}

func TestWindowPrefersCoarsestQualifyingLevel(t *testing.T) {
	src := newFakeChannel(t, time.Second, 5*time.Second, 15*time.Second, 25*time.Second, 150*time.Second)

	// 50,000,000ms over 800px is 62,500ms per pixel; windows under 125s qualify.
	w, err := Window(src, series.NewTimeRange(0, 50_000_000), 800)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Second, w)
}

func TestWindowOnVeryWideRanges(t *testing.T) {
	src := newFakeChannel(t, time.Second, 5*time.Second, 15*time.Second, 25*time.Second)

	tests := []struct {
		name    string
		visible series.TimeRange
	}{
		{"2^42 ms", series.NewTimeRange(0, 1<<42)},
		{"2^44 ms", series.NewTimeRange(0, 1<<44)},
		{"up to MaxInt64", series.NewTimeRange(0, math.MaxInt64)},
		{"whole int64 axis", series.NewTimeRange(math.MinInt64, math.MaxInt64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Window(src, tt.visible, 800)
			require.NoError(t, err)
			assert.Equal(t, 25*time.Second, w)
		})
	}
}

func TestWindowFallsBackToRaw(t *testing.T) {
	src := newFakeChannel(t, time.Second, 5*time.Second)

	// 60s over 800px is 75ms per pixel; nothing is finer than 150ms.
	w, err := Window(src, series.NewTimeRange(0, 60_000), 800)
	require.NoError(t, err)
	assert.Zero(t, w)

	store, err := SelectResolution(src, series.NewTimeRange(0, 60_000), 800)
	require.NoError(t, err)
	assert.Equal(t, 61, store.Len())
}

func TestWindowBoundaryIsExclusive(t *testing.T) {
	src := newFakeChannel(t, 5*time.Second)

	// 2 x (2,000,000ms / 800px) is exactly 5s.
	w, err := Window(src, series.NewTimeRange(0, 2_000_000), 800)
	require.NoError(t, err)
	assert.Zero(t, w)
}

func TestSelectResolutionCropsLevel(t *testing.T) {
	src := newFakeChannel(t, time.Second, 5*time.Second, 15*time.Second, 25*time.Second)
	visible := series.NewTimeRange(100_000, 400_000)

	store, err := SelectResolution(src, visible, 10)
	require.NoError(t, err)

	// 30s per pixel admits windows under 60s; the 25s level starts 100s, 125s ... 400s.
	assert.Equal(t, 13, store.Len())
	r, err := store.Range()
	require.NoError(t, err)
	assert.Equal(t, visible, r)
}

func TestSelectResolutionRejectsPixelWidth(t *testing.T) {
	src := newFakeChannel(t, time.Second)
	_, err := SelectResolution(src, series.NewTimeRange(0, 1000), 0)
	assert.ErrorIs(t, err, ErrInvalidPixelWidth)
}

func TestTrackerValue(t *testing.T) {
	store := series.New("speed", []series.Point{
		series.Value(0, 0),
		series.Value(1000, 1),
		series.Value(2000, 2),
		series.Gap(3000),
		series.Value(8000, 8),
		series.Value(9000, 9),
	})
	visible := series.NewTimeRange(0, 9000)

	tests := []struct {
		name    string
		visible series.TimeRange
		tracker int64
		want    float64
		ok      bool
	}{
		{"exact", visible, 2000, 2, true},
		{"between points resolves forward", visible, 1500, 2, true},
		{"lands on gap", visible, 2500, 0, false},
		{"after gap", visible, 4000, 8, true},
		{"last point", visible, 9000, 9, true},
		{"outside visible", visible, 9500, 0, false},
		{"past last point", series.NewTimeRange(0, 20_000), 15_000, 0, false},
		{"zero width range", series.NewTimeRange(1000, 1000), 1000, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TrackerValue(store, tt.visible, tt.tracker)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}

	_, ok := TrackerValue(series.New("empty", nil), visible, 0)
	assert.False(t, ok)
}

func TestClamp(t *testing.T) {
	domain := series.NewTimeRange(0, 100_000)
	minDuration := 10 * time.Second

	tests := []struct {
		name      string
		requested series.TimeRange
		want      series.TimeRange
	}{
		{"inside", series.NewTimeRange(20_000, 60_000), series.NewTimeRange(20_000, 60_000)},
		{"too narrow widens around centre", series.NewTimeRange(40_000, 42_000), series.NewTimeRange(36_000, 46_000)},
		{"before domain shifts right", series.NewTimeRange(-5_000, 5_000), series.NewTimeRange(0, 10_000)},
		{"after domain shifts left", series.NewTimeRange(95_000, 110_000), series.NewTimeRange(85_000, 100_000)},
		{"wider than domain", series.NewTimeRange(-1, 200_000), domain},
		{"reversed", series.NewTimeRange(60_000, 20_000), series.NewTimeRange(20_000, 60_000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.requested, domain, minDuration))
		})
	}
}

func buildDataset(t *testing.T) *pipeline.Dataset {
	t.Helper()
	var rows []record.Row
	for i := 0; i < 10; i++ {
		rows = append(rows, record.Of(float64(i), float64(10+i), float64(i)))
	}
	opts := pipeline.Options{
		Layout: channel.Layout{TimeField: 0, TimeUnit: time.Second},
		Channels: []channel.Spec{
			{Name: "power", Label: "Power", Units: "watts", DisplayFormat: ".1f", Transform: channel.Passthrough, Fields: []int{1}, InitiallyVisible: true, Rollup: true},
			{Name: "cadence", Label: "Cadence", Units: "rpm", DisplayFormat: "d", Transform: channel.Passthrough, Fields: []int{2}},
		},
		RollupWindows: []time.Duration{time.Second},
		Aggregator:    rollup.Avg,
	}
	ds, err := pipeline.Build(rows, opts, channel.NewBuilder(opts.Layout, zap.NewNop()))
	require.NoError(t, err)
	return ds
}

func TestViewStateVisibility(t *testing.T) {
	ds := buildDataset(t)
	vs := NewViewState(ds, series.NewTimeRange(0, 9000))

	assert.True(t, vs.IsVisible("power"))
	assert.False(t, vs.IsVisible("cadence"))
	assert.True(t, vs.Toggle("cadence"))
	assert.False(t, vs.Toggle("power"))
	assert.False(t, vs.IsVisible("power"))
	assert.False(t, vs.IsVisible("unknown"))
}

func TestViewStateZeroValueToggle(t *testing.T) {
	var vs ViewState
	assert.False(t, vs.IsVisible("speed"))
	assert.True(t, vs.Toggle("speed"))
	assert.True(t, vs.IsVisible("speed"))
	assert.False(t, vs.Toggle("speed"))
}

func TestReadout(t *testing.T) {
	ds := buildDataset(t)
	vs := NewViewState(ds, series.NewTimeRange(0, 9000))

	readings, err := Readout(ds, vs, 800)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.False(t, readings[0].Valid)
	assert.Equal(t, "-", readings[0].Text)

	vs.SetTracker(3000)
	vs.Toggle("cadence")
	readings, err = Readout(ds, vs, 800)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, Reading{Channel: "power", Label: "Power", Units: "watts", Value: 13, Valid: true, Text: "13.0"}, readings[0])
	assert.Equal(t, Reading{Channel: "cadence", Label: "Cadence", Units: "rpm", Value: 3, Valid: true, Text: "3"}, readings[1])

	_, err = Readout(nil, vs, 800)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestFormatTracker(t *testing.T) {
	vs := &ViewState{}
	assert.Equal(t, "-:--:--", FormatTracker(vs, 0))

	vs.SetTracker(3_723_000)
	assert.Equal(t, "1:02:03", FormatTracker(vs, 0))
	assert.Equal(t, "0:00:00", FormatTracker(vs, 4_000_000))

	vs.ClearTracker()
	_, ok := vs.Tracker()
	assert.False(t, ok)
}
