package channel

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/record"
	"github.com/sanspareilsmyn/ridelens/internal/series"
)

func newTestBuilder() *Builder {
	return NewBuilder(Layout{TimeField: 0, TimeUnit: time.Second}, zap.NewNop())
}

func TestPassthroughWithGap(t *testing.T) {
	rows := []record.Row{record.Of(0, 10), record.Of(1, 12), record.Of(15, 14)}
	specs := []Spec{{Name: "value", Transform: Passthrough, Fields: []int{1}, GapThreshold: 10 * time.Second}}

	out, report, err := newTestBuilder().Build(rows, specs)
	require.NoError(t, err)

	assert.Equal(t, []series.Point{
		series.Value(0, 10),
		series.Value(1000, 12),
		series.Gap(2000),
		series.Value(15000, 14),
	}, out["value"].Points())
	assert.Equal(t, 1, report.Gaps["value"])
	assert.Equal(t, 3, report.RowsAccepted)
}

func TestGapMarkerPlacement(t *testing.T) {
	type testcase struct {
		name      string
		times     []float64
		threshold time.Duration
		markers   []int64
	}
	for _, tc := range []testcase{
		{name: "delta equal to threshold is not a gap", times: []float64{0, 10, 20}, threshold: 10 * time.Second},
		{name: "every long step marked", times: []float64{0, 11, 12, 40}, threshold: 10 * time.Second, markers: []int64{1000, 13000}},
		{name: "disabled threshold", times: []float64{0, 100}, threshold: 0},
		{name: "marker would collide with next point", times: []float64{0, 0.9}, threshold: 500 * time.Millisecond},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rows := make([]record.Row, 0, len(tc.times))
			for _, ts := range tc.times {
				rows = append(rows, record.Of(ts, 1))
			}
			out, _, err := newTestBuilder().Build(rows, []Spec{{Name: "v", Transform: Passthrough, Fields: []int{1}, GapThreshold: tc.threshold}})
			require.NoError(t, err)

			var markers []int64
			points := out["v"].Points()
			for i, p := range points {
				if !p.Valid {
					markers = append(markers, p.Timestamp)
					require.Less(t, i+1, len(points), "marker must precede a real point")
					assert.Less(t, p.Timestamp, points[i+1].Timestamp)
				}
			}
			assert.Equal(t, tc.markers, markers)
		})
	}
}

func TestDeltaSkipsFirstRowAndScales(t *testing.T) {
	// time, distance in meters
	rows := []record.Row{
		record.Of(0, 0),
		record.Of(1, 10),
		record.Of(3, 30),
		record.Of(20, 50),
	}
	speed := Spec{Name: "speed", Transform: Delta, Fields: []int{1}, Scale: 2.236941, GapThreshold: 10 * time.Second}

	out, _, err := newTestBuilder().Build(rows, []Spec{speed})
	require.NoError(t, err)

	points := out["speed"].Points()
	require.Len(t, points, 4)
	assert.Equal(t, int64(1000), points[0].Timestamp)
	assert.InDelta(t, 10*2.236941, points[0].Value, 1e-9)
	assert.Equal(t, int64(3000), points[1].Timestamp)
	assert.InDelta(t, 10*2.236941, points[1].Value, 1e-9)
	assert.Equal(t, series.Gap(4000), points[2])
	assert.Equal(t, int64(20000), points[3].Timestamp)
	assert.InDelta(t, 20.0/17*2.236941, points[3].Value, 1e-9)
}

func TestDeltaAbsentNeighbour(t *testing.T) {
	rows := []record.Row{
		record.Of(0, 0),
		{record.Num(1), record.Null},
		record.Of(2, 20),
		record.Of(3, 26),
	}
	out, _, err := newTestBuilder().Build(rows, []Spec{{Name: "speed", Transform: Delta, Fields: []int{1}}})
	require.NoError(t, err)
	assert.Equal(t, []series.Point{
		series.Gap(1000),
		series.Gap(2000),
		series.Value(3000, 6),
	}, out["speed"].Points())
}

func TestUnitScale(t *testing.T) {
	rows := []record.Row{record.Of(0, 100), record.Of(1, 200)}
	out, _, err := newTestBuilder().Build(rows, []Spec{{Name: "altitude", Transform: Scale, Fields: []int{1}, Scale: 3.28084}})
	require.NoError(t, err)

	points := out["altitude"].Points()
	require.Len(t, points, 2)
	assert.InDelta(t, 328.084, points[0].Value, 1e-9)
	assert.InDelta(t, 656.168, points[1].Value, 1e-9)
}

func TestDerivedRMSAndMagnitude(t *testing.T) {
	rows := []record.Row{
		record.Of(0, 3, 4, 0),
		{record.Num(1), record.Num(1), record.Null, record.Num(1)},
		record.Of(2, 1, 1, 1),
	}
	specs := []Spec{
		{Name: "mag", Transform: Magnitude, Fields: []int{1, 2, 3}},
		{Name: "rms", Transform: RMS, Fields: []int{1, 2, 3}},
	}
	out, _, err := newTestBuilder().Build(rows, specs)
	require.NoError(t, err)

	mag := out["mag"].Points()
	require.Len(t, mag, 3)
	assert.Equal(t, series.Value(0, 5), mag[0])
	assert.Equal(t, series.Gap(1000), mag[1])
	assert.InDelta(t, math.Sqrt(3), mag[2].Value, 1e-12)

	rms := out["rms"].Points()
	require.Len(t, rms, 3)
	assert.InDelta(t, math.Sqrt(25.0/3), rms[0].Value, 1e-12)
	assert.False(t, rms[1].Valid)
	assert.InDelta(t, 1.0, rms[2].Value, 1e-12)
}

func TestRegressiveAndMalformedRowsDropped(t *testing.T) {
	rows := []record.Row{
		record.Of(0, 1),
		record.Of(2, 2),
		record.Of(2, 3), // duplicate
		record.Of(1, 4), // regression
		{record.Null, record.Num(5)},
		{},
		record.Of(3, 6),
	}
	out, report, err := newTestBuilder().Build(rows, []Spec{{Name: "v", Transform: Passthrough, Fields: []int{1}}})
	require.NoError(t, err)

	assert.Equal(t, []series.Point{
		series.Value(0, 1),
		series.Value(2000, 2),
		series.Value(3000, 6),
	}, out["v"].Points())
	assert.Equal(t, 7, report.RowsTotal)
	assert.Equal(t, 3, report.RowsAccepted)
	assert.Equal(t, 2, report.RowsRegressive)
	assert.Equal(t, 2, report.RowsMalformed)
}

func TestOutputTimestampsNonDecreasing(t *testing.T) {
	times := []float64{5, 3, 5.5, 5.5, 30, 29, 31, 100, 100.2, 99, 250}
	rows := make([]record.Row, 0, len(times))
	for i, ts := range times {
		rows = append(rows, record.Of(ts, float64(i*10), float64(i)))
	}
	specs := []Spec{
		{Name: "a", Transform: Passthrough, Fields: []int{2}, GapThreshold: 10 * time.Second},
		{Name: "b", Transform: Delta, Fields: []int{1}, GapThreshold: time.Second},
		{Name: "c", Transform: Magnitude, Fields: []int{1, 2}, GapThreshold: 20 * time.Second},
	}
	out, _, err := newTestBuilder().Build(rows, specs)
	require.NoError(t, err)

	for name, store := range out {
		points := store.Points()
		for i := 1; i < len(points); i++ {
			assert.LessOrEqual(t, points[i-1].Timestamp, points[i].Timestamp, "channel %s index %d", name, i)
		}
	}
}

func TestEmptyInputYieldsEmptyChannels(t *testing.T) {
	out, report, err := newTestBuilder().Build(nil, []Spec{{Name: "v", Transform: Passthrough, Fields: []int{1}}})
	require.NoError(t, err)
	assert.Equal(t, 0, out["v"].Len())
	assert.Equal(t, 0, report.RowsAccepted)
}

func TestMillisecondTimeUnit(t *testing.T) {
	b := NewBuilder(Layout{TimeField: 1, TimeUnit: time.Millisecond}, zap.NewNop())
	out, _, err := b.Build([]record.Row{record.Of(7, 1500), record.Of(8, 2500)}, []Spec{{Name: "v", Transform: Passthrough, Fields: []int{0}}})
	require.NoError(t, err)
	assert.Equal(t, []series.Point{series.Value(1500, 7), series.Value(2500, 8)}, out["v"].Points())
}

func TestBuildIsDeterministic(t *testing.T) {
	rows := make([]record.Row, 0, 500)
	for i := 0; i < 500; i++ {
		ts := float64(i)
		if i%97 == 0 {
			ts += 30
		}
		rows = append(rows, record.Of(ts, math.Sin(float64(i))*100, float64(i*7%13)))
	}
	specs := []Spec{
		{Name: "speed", Transform: Delta, Fields: []int{1}, Scale: 2.236941, GapThreshold: 10 * time.Second},
		{Name: "x", Transform: Passthrough, Fields: []int{2}},
	}
	first, _, err := newTestBuilder().Build(rows, specs)
	require.NoError(t, err)
	second, _, err := newTestBuilder().Build(rows, specs)
	require.NoError(t, err)

	for _, s := range specs {
		assert.Equal(t, first[s.Name].Points(), second[s.Name].Points())
	}
}

func TestSpecValidation(t *testing.T) {
	for _, tc := range []struct {
		name string
		spec Spec
	}{
		{name: "empty name", spec: Spec{Transform: Passthrough, Fields: []int{1}}},
		{name: "unknown transform", spec: Spec{Name: "x", Transform: "median", Fields: []int{1}}},
		{name: "delta with two fields", spec: Spec{Name: "x", Transform: Delta, Fields: []int{1, 2}}},
		{name: "rms without fields", spec: Spec{Name: "x", Transform: RMS}},
		{name: "negative field", spec: Spec{Name: "x", Transform: Scale, Fields: []int{-1}}},
		{name: "scaled passthrough", spec: Spec{Name: "x", Transform: Passthrough, Fields: []int{1}, Scale: 2}},
		{name: "negative gap threshold", spec: Spec{Name: "x", Transform: Passthrough, Fields: []int{1}, GapThreshold: -time.Second}},
		{name: "infinite scale", spec: Spec{Name: "x", Transform: Scale, Fields: []int{1}, Scale: math.Inf(1)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.spec.Validate(), ErrInvalidSpec)
		})
	}

	_, _, err := newTestBuilder().Build(nil, []Spec{
		{Name: "x", Transform: Passthrough, Fields: []int{1}},
		{Name: "x", Transform: Scale, Fields: []int{2}},
	})
	assert.ErrorIs(t, err, ErrDuplicateChannel)
}

func TestFormatValue(t *testing.T) {
	for _, tc := range []struct {
		format string
		v      float64
		expect string
	}{
		{format: "d", v: 87.6, expect: "88"},
		{format: ".1f", v: 21.345, expect: "21.3"},
		{format: ",.1f", v: 1234.56, expect: "1,234.6"},
		{format: ",d", v: 1234567, expect: "1,234,567"},
		{format: "", v: 2.5, expect: "2.5"},
		{format: "x", v: 2.5, expect: "2.5"},
		{format: ".zf", v: 2.5, expect: "2.5"},
	} {
		t.Run(tc.format, func(t *testing.T) {
			assert.Equal(t, tc.expect, FormatValue(tc.format, tc.v))
		})
	}
	assert.Equal(t, "12.0", Spec{DisplayFormat: ",.1f"}.Format(12))
}
