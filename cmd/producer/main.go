package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/config"
	"github.com/sanspareilsmyn/ridelens/internal/logging"
	"github.com/sanspareilsmyn/ridelens/internal/source"
)

var (
	configFile = flag.String("config", "", "Path to the configuration file (kafka and log sections are used)")
	inputPath  = flag.String("input", "", "CSV ride file to replay")
	interval   = flag.Duration("interval", 0, "Pause between rows; 0 sends as fast as possible")
)

// Replays a CSV ride file into the configured topic, one JSON array per row,
// in file order so ridelens can consume it with -format kafka.
func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if *inputPath == "" || len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "" {
		sugar.Fatalw("Producer needs -input and kafka brokers and topic",
			"input", *inputPath,
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rows, err := source.NewCSVFile(*inputPath, logger.Named("csv")).Rows(ctx)
	if err != nil {
		sugar.Fatalw("Failed to read input", "path", *inputPath, zap.Error(err))
	}

	// A single partition keeps the rows in order for the consumer.
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Kafka.Brokers...),
		Topic:    cfg.Kafka.Topic,
		Balancer: &kafka.Hash{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			sugar.Errorw("Error closing kafka writer", zap.Error(err))
		}
	}()
	sugar.Infow("Starting replay", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers, "rows", len(rows))

	key := []byte(*inputPath)
	sent := 0
	for _, row := range rows {
		msgBytes, err := json.Marshal(row)
		if err != nil {
			sugar.Warnw("Error marshalling row", zap.Error(err))
			continue
		}

		if err := writer.WriteMessages(ctx, kafka.Message{Key: key, Value: msgBytes}); err != nil {
			if ctx.Err() != nil { // Check if context was cancelled (shutdown)
				sugar.Info("Context cancelled, stopping replay.")
				break
			}
			sugar.Errorw("Error writing message", zap.Error(err))
			continue
		}
		sent++
		sugar.Debugw("Produced message", "value", string(msgBytes))

		if *interval > 0 {
			select {
			case <-time.After(*interval):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	sugar.Infow("Replay finished", "sent", sent, "total", len(rows))
}
