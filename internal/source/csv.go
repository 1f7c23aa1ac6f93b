package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/record"
)

// CSVFile reads rows from a comma separated file. A header line is not
// special: it has no numeric time field, so the channel builder skips it
// like any other malformed row.
type CSVFile struct {
	Path   string
	logger *zap.Logger
}

// NewCSVFile returns a source for the CSV file at path.
func NewCSVFile(path string, logger *zap.Logger) *CSVFile {
	return &CSVFile{Path: path, logger: logger}
}

// Rows reads the whole file.
func (c *CSVFile) Rows(ctx context.Context) ([]record.Row, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	defer f.Close()

	rows, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.Debug("CSV file read", zap.String("path", c.Path), zap.Int("rows", len(rows)))
	}
	return rows, nil
}

// ReadCSV decodes every record of r. Rows may have differing field counts.
func ReadCSV(ctx context.Context, r io.Reader) ([]record.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var rows []record.Row
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrDecodeFailed, len(rows)+1, err)
		}
		rows = append(rows, record.ParseStrings(fields))

		if len(rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
}
