package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/config"
	"github.com/sanspareilsmyn/ridelens/internal/record"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// messageReader is the part of *kafka.Reader the source uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Kafka collects rows published as JSON arrays on a topic. A load ends when
// no message arrives within IdleTimeout or MaxRows rows have been read.
// Offsets are never committed, so every load replays the topic.
type Kafka struct {
	cfg       config.KafkaConfig
	logger    *zap.Logger
	newReader func() messageReader
}

// NewKafka validates cfg and returns a Kafka source.
func NewKafka(cfg config.KafkaConfig, logger *zap.Logger) (*Kafka, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
		)
		return nil, ErrInvalidKafkaConfig
	}

	k := &Kafka{cfg: cfg, logger: logger}
	k.newReader = func() messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       cfg.Topic,
			StartOffset: kafka.FirstOffset,
			Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
			ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
		})
	}

	logger.Info("Kafka source created",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
		zap.Duration("idle_timeout", cfg.IdleTimeout),
		zap.Int("max_rows", cfg.MaxRows),
	)
	return k, nil
}

// Rows reads messages until the topic goes idle, MaxRows is reached, or ctx
// is cancelled. Messages that are not JSON arrays are logged and skipped.
func (k *Kafka) Rows(ctx context.Context) ([]record.Row, error) {
	sugar := k.logger.Sugar()
	reader := k.newReader()
	defer func() {
		if err := reader.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka reader cleanly", zap.Error(err))
		}
	}()

	var rows []record.Row
	skipped := 0
	for k.cfg.MaxRows == 0 || len(rows) < k.cfg.MaxRows {
		m, err := k.fetch(ctx, reader)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				sugar.Debugw("Kafka topic idle, ending dataset", "rows", len(rows))
				break
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			sugar.Errorw("Error fetching message from Kafka", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		row, err := record.ParseJSON(m.Value)
		if err != nil {
			skipped++
			sugar.Warnw("Skipping undecodable message",
				"offset", m.Offset,
				"partition", m.Partition,
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, row)
	}

	sugar.Infow("Kafka rows collected", "rows", len(rows), "skipped", skipped)
	return rows, nil
}

func (k *Kafka) fetch(ctx context.Context, reader messageReader) (kafka.Message, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, k.cfg.IdleTimeout)
	defer cancel()
	return reader.FetchMessage(fetchCtx)
}
