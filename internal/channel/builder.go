// Package channel turns decoded rows into named, time-ordered channels.
package channel

import (
	"math"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/record"
	"github.com/sanspareilsmyn/ridelens/internal/series"
)

// Report counts what happened to the input while building.
type Report struct {
	RowsTotal      int
	RowsAccepted   int
	RowsMalformed  int // no usable timestamp
	RowsRegressive int // timestamp <= previous accepted timestamp
	Gaps           map[string]int
}

// Builder converts rows into channel stores according to a fixed layout.
type Builder struct {
	layout Layout
	logger *zap.Logger
}

// NewBuilder creates a Builder for rows shaped by layout.
func NewBuilder(layout Layout, logger *zap.Logger) *Builder {
	return &Builder{layout: layout, logger: logger}
}

// sample is an accepted row with its timestamp resolved to milliseconds.
type sample struct {
	ts  int64
	row record.Row
}

// Build produces one store per spec. Row-level problems are never errors:
// rows without a timestamp and rows that go back in time are skipped, and an
// input with no usable rows yields empty stores. Only invalid specs fail.
func (b *Builder) Build(rows []record.Row, specs []Spec) (map[string]*series.Store, Report, error) {
	if err := ValidateAll(specs); err != nil {
		return nil, Report{}, err
	}

	samples, report := b.accept(rows)
	report.Gaps = make(map[string]int, len(specs))

	out := make(map[string]*series.Store, len(specs))
	for _, spec := range specs {
		points, gaps := buildPoints(spec, samples)
		out[spec.Name] = series.New(spec.Name, points)
		report.Gaps[spec.Name] = gaps
		b.logger.Debug("Channel built",
			zap.String("channel", spec.Name),
			zap.String("transform", string(spec.Transform)),
			zap.Int("points", len(points)),
			zap.Int("gaps", gaps),
		)
	}

	b.logger.Info("Channels built",
		zap.Int("channels", len(out)),
		zap.Int("rows_total", report.RowsTotal),
		zap.Int("rows_accepted", report.RowsAccepted),
		zap.Int("rows_malformed", report.RowsMalformed),
		zap.Int("rows_regressive", report.RowsRegressive),
	)
	return out, report, nil
}

// accept resolves timestamps and filters out rows that cannot be placed on
// the time axis.
func (b *Builder) accept(rows []record.Row) ([]sample, Report) {
	report := Report{RowsTotal: len(rows)}
	unit := b.layout.unitMillis()
	samples := make([]sample, 0, len(rows))

	for i, row := range rows {
		t, ok := row.Float(b.layout.TimeField)
		if !ok {
			report.RowsMalformed++
			b.logger.Debug("Skipping row without timestamp",
				zap.Int("row", i),
				zap.String("row_snippet", row.Snippet(50)),
			)
			continue
		}
		ts := int64(math.Round(t * unit))
		if n := len(samples); n > 0 && ts <= samples[n-1].ts {
			report.RowsRegressive++
			continue
		}
		samples = append(samples, sample{ts: ts, row: row})
	}
	report.RowsAccepted = len(samples)
	return samples, report
}

// buildPoints applies one spec to the accepted samples and returns the points
// and the number of gap markers inserted.
func buildPoints(spec Spec, samples []sample) ([]series.Point, int) {
	threshold := spec.GapThreshold.Milliseconds()
	offset := GapMarkerOffset.Milliseconds()

	points := make([]series.Point, 0, len(samples))
	gaps := 0
	for i, s := range samples {
		if i > 0 && threshold > 0 {
			prev := samples[i-1].ts
			if s.ts-prev > threshold && prev+offset < s.ts {
				points = append(points, series.Gap(prev+offset))
				gaps++
			}
		}
		if i == 0 && spec.Transform.needsPrevious() {
			continue
		}
		if v, ok := value(spec, samples, i); ok {
			points = append(points, series.Value(s.ts, v))
		} else {
			points = append(points, series.Gap(s.ts))
		}
	}
	return points, gaps
}

// value computes the channel value at sample i. It reports false when any
// input is absent.
func value(spec Spec, samples []sample, i int) (float64, bool) {
	row := samples[i].row
	switch spec.Transform {
	case Passthrough:
		return row.Float(spec.Fields[0])

	case Scale:
		v, ok := row.Float(spec.Fields[0])
		return v * spec.factor(), ok

	case Delta:
		cur, ok := row.Float(spec.Fields[0])
		if !ok {
			return 0, false
		}
		prev, ok := samples[i-1].row.Float(spec.Fields[0])
		if !ok {
			return 0, false
		}
		seconds := float64(samples[i].ts-samples[i-1].ts) / 1000
		return (cur - prev) / seconds * spec.factor(), true

	case RMS, Magnitude:
		var sumSq float64
		for _, f := range spec.Fields {
			v, ok := row.Float(f)
			if !ok {
				return 0, false
			}
			sumSq += v * v
		}
		if spec.Transform == RMS {
			sumSq /= float64(len(spec.Fields))
		}
		return math.Sqrt(sumSq) * spec.factor(), true
	}
	return 0, false
}
