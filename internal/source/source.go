// Package source acquires raw rows for a dataset load from files or a Kafka
// topic.
package source

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/config"
	"github.com/sanspareilsmyn/ridelens/internal/record"
)

// RowSource supplies the ordered rows of one dataset.
type RowSource interface {
	Rows(ctx context.Context) ([]record.Row, error)
}

// Input formats accepted by New.
const (
	FormatCSV   = "csv"
	FormatFIT   = "fit"
	FormatKafka = "kafka"
)

// New returns the source for format. File formats read path; the kafka
// format ignores path and uses cfg.
func New(format, path string, cfg config.KafkaConfig, logger *zap.Logger) (RowSource, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		if path == "" {
			return nil, ErrMissingInput
		}
		return NewCSVFile(path, logger.Named("csv")), nil
	case FormatFIT:
		if path == "" {
			return nil, ErrMissingInput
		}
		return NewFITFile(path, logger.Named("fit")), nil
	case FormatKafka:
		return NewKafka(cfg, logger.Named("kafka"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
