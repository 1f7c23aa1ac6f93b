package config

import "errors"

var (
	ErrReadingConfigFile     = errors.New("failed to read config file")
	ErrUnmarshallingConfig   = errors.New("failed to unmarshal config")
	ErrConfigFileMissing     = errors.New("config file not found")
	ErrInvalidChannels       = errors.New("invalid channel configuration")
	ErrInvalidRollupWindow   = errors.New("dataset rollupWindows must all be at least 1ms")
	ErrEmptyAggregator       = errors.New("dataset aggregator cannot be empty")
	ErrInvalidPixelWidth     = errors.New("viewport pixelWidth must be positive")
	ErrInvalidMinDuration    = errors.New("viewport minDuration cannot be negative")
	ErrInvalidInitialRange   = errors.New("viewport initialEnd must be after initialBegin")
	ErrNegativeTimeField     = errors.New("dataset timeField cannot be negative")
	ErrInvalidKafkaMaxRows   = errors.New("kafka maxRows cannot be negative")
	ErrInvalidKafkaIdleLimit = errors.New("kafka idleTimeout must be positive")
)
