package source

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/tormoder/fit"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/record"
)

// FIT rows follow the default ride layout:
// time (s), distance (m), altitude (m), cadence (rpm), power (W), temperature (deg F).
const fitFieldCount = 6

// FITFile reads the record messages of an activity FIT file.
type FITFile struct {
	Path   string
	logger *zap.Logger
}

// NewFITFile returns a source for the FIT file at path.
func NewFITFile(path string, logger *zap.Logger) *FITFile {
	return &FITFile{Path: path, logger: logger}
}

// Rows decodes the file.
func (f *FITFile) Rows(ctx context.Context) ([]record.Row, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer file.Close()

	rows, err := ReadFIT(file)
	if err != nil {
		return nil, err
	}
	if f.logger != nil {
		f.logger.Debug("FIT file read", zap.String("path", f.Path), zap.Int("rows", len(rows)))
	}
	return rows, ctx.Err()
}

// ReadFIT decodes an activity file into rows. Records without a timestamp
// produce a row whose time field is absent.
func ReadFIT(r io.Reader) ([]record.Row, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("%w: activity FIT expected: %w", ErrDecodeFailed, err)
	}

	rows := make([]record.Row, 0, len(activity.Records))
	for _, rec := range activity.Records {
		rows = append(rows, fitRow(rec))
	}
	return rows, nil
}

func fitRow(rec *fit.RecordMsg) record.Row {
	row := make(record.Row, fitFieldCount)
	if !rec.Timestamp.IsZero() && !fit.IsBaseTime(rec.Timestamp) {
		row[0] = record.Num(float64(rec.Timestamp.UnixMilli()) / 1000)
	}
	row[1] = record.Num(rec.GetDistanceScaled())

	alt := rec.GetEnhancedAltitudeScaled()
	if math.IsNaN(alt) {
		alt = rec.GetAltitudeScaled()
	}
	row[2] = record.Num(alt)

	if rec.Cadence != math.MaxUint8 {
		row[3] = record.Num(float64(rec.Cadence))
	}
	if rec.Power != math.MaxUint16 {
		row[4] = record.Num(float64(rec.Power))
	}
	if rec.Temperature != math.MaxInt8 {
		row[5] = record.Num(float64(rec.Temperature)*9/5 + 32)
	}
	return row
}
