// Package export writes prepared datasets out of the process: a Parquet
// dump of every series and plain-text tables for the terminal.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/sanspareilsmyn/ridelens/internal/pipeline"
	"github.com/sanspareilsmyn/ridelens/internal/series"
)

// PointRow is one exported point. Raw series are written with WindowMs 0.
type PointRow struct {
	Channel     string   `parquet:"channel,snappy,dict"`
	WindowMs    int64    `parquet:"window_ms,snappy"`
	TimestampMs int64    `parquet:"timestamp_ms,snappy"`
	Value       *float64 `parquet:"value,optional,snappy"`
}

// Rows flattens the dataset in channel order: the raw series first, then
// each rollup level from finest to coarsest. Gaps have a nil Value.
func Rows(ds *pipeline.Dataset) []PointRow {
	var rows []PointRow
	for _, c := range ds.Channels() {
		rows = appendStore(rows, c.Name(), 0, c.Raw())
		for _, l := range c.Levels() {
			rows = appendStore(rows, c.Name(), l.Window.Milliseconds(), l.Store)
		}
	}
	return rows
}

func appendStore(rows []PointRow, name string, windowMs int64, store *series.Store) []PointRow {
	for _, p := range store.Points() {
		row := PointRow{Channel: name, WindowMs: windowMs, TimestampMs: p.Timestamp}
		if p.Valid {
			v := p.Value
			row.Value = &v
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteParquet writes every point of ds to w and returns the row count.
func WriteParquet(w io.Writer, ds *pipeline.Dataset) (int, error) {
	writer := parquet.NewGenericWriter[PointRow](w)

	rows := Rows(ds)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return 0, fmt.Errorf("failed to write data to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish parquet output: %w", err)
	}
	return len(rows), nil
}

// WriteParquetFile creates outputPath and writes ds to it.
func WriteParquetFile(outputPath string, ds *pipeline.Dataset) (int, error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	n, err := WriteParquet(file, ds)
	if err != nil {
		return 0, err
	}
	return n, file.Sync()
}
