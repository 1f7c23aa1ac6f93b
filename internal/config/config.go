package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sanspareilsmyn/ridelens/internal/channel"
)

const (
	defaultTimeField      = 0
	defaultTimeUnit       = time.Second
	defaultAggregator     = "avg"
	defaultPixelWidth     = 800
	defaultMinDuration    = 10 * time.Minute
	defaultInitialBegin   = 75 * time.Minute
	defaultInitialEnd     = 125 * time.Minute
	defaultKafkaGroupID   = "ridelens-default-group"
	defaultKafkaIdle      = 5 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogFileEnabled = false
	defaultLogDirectory   = "log"
	defaultLogFilename    = "ridelens.log"
	defaultLogMaxSizeMB   = 100
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 7
	defaultLogCompress    = false

	// Environment variable prefix
	envPrefix = "RIDELENS"
)

var defaultRollupWindows = []time.Duration{1 * time.Second, 5 * time.Second, 15 * time.Second, 25 * time.Second}

type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatasetConfig describes the row layout and the channels built from it.
type DatasetConfig struct {
	TimeField     int             `mapstructure:"timeField"`
	TimeUnit      time.Duration   `mapstructure:"timeUnit"`
	RollupWindows []time.Duration `mapstructure:"rollupWindows"`
	Aggregator    string          `mapstructure:"aggregator"` // avg, min, max, sum, count
	Channels      []channel.Spec  `mapstructure:"channels"`
}

// ViewportConfig holds the display constraints handed to the chart.
type ViewportConfig struct {
	PixelWidth   int           `mapstructure:"pixelWidth"`
	MinDuration  time.Duration `mapstructure:"minDuration"`  // smallest zoomable span
	InitialBegin time.Duration `mapstructure:"initialBegin"` // offset from the start of the dataset
	InitialEnd   time.Duration `mapstructure:"initialEnd"`
}

type KafkaConfig struct {
	Brokers     []string      `mapstructure:"brokers"`
	Topic       string        `mapstructure:"topic"`
	GroupID     string        `mapstructure:"groupID"`
	IdleTimeout time.Duration `mapstructure:"idleTimeout"` // end of dataset when no row arrives for this long
	MaxRows     int           `mapstructure:"maxRows"`     // 0 means unlimited
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the listener
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
// An empty configPath runs on defaults and environment variables only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if configPath != "" {
		if err := readConfigFile(v); err != nil {
			return nil, err
		}
	}

	// Unmarshal the configuration
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}
	if len(cfg.Dataset.Channels) == 0 {
		cfg.Dataset.Channels = DefaultChannels()
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultChannels is the ride channel set for rows laid out as
// time(s), distance(m), altitude(m), cadence(rpm), power(W), temperature(F).
func DefaultChannels() []channel.Spec {
	return []channel.Spec{
		{Name: "speed", Units: "mph", Label: "Speed", DisplayFormat: ",.1f", Transform: channel.Delta, Fields: []int{1}, Scale: 2.236941, GapThreshold: 10 * time.Second, InitiallyVisible: true, Rollup: true},
		{Name: "power", Units: "watts", Label: "Power", DisplayFormat: ",.1f", Transform: channel.Passthrough, Fields: []int{4}, InitiallyVisible: true, Rollup: true},
		{Name: "cadence", Units: "rpm", Label: "Cadence", DisplayFormat: "d", Transform: channel.Passthrough, Fields: []int{3}, InitiallyVisible: true, Rollup: true},
		{Name: "temperature", Units: "deg F", Label: "Temp", DisplayFormat: "d", Transform: channel.Passthrough, Fields: []int{5}},
		{Name: "distance", Units: "miles", Label: "Distance", DisplayFormat: ",.1f", Transform: channel.Scale, Fields: []int{1}, Scale: 0.000621371},
		{Name: "altitude", Units: "feet", Label: "Altitude", DisplayFormat: "d", Transform: channel.Scale, Fields: []int{2}, Scale: 3.28084},
	}
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dataset.timeField", defaultTimeField)
	v.SetDefault("dataset.timeUnit", defaultTimeUnit)
	v.SetDefault("dataset.rollupWindows", defaultRollupWindows)
	v.SetDefault("dataset.aggregator", defaultAggregator)
	v.SetDefault("viewport.pixelWidth", defaultPixelWidth)
	v.SetDefault("viewport.minDuration", defaultMinDuration)
	v.SetDefault("viewport.initialBegin", defaultInitialBegin)
	v.SetDefault("viewport.initialEnd", defaultInitialEnd)
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("kafka.idleTimeout", defaultKafkaIdle)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) || errors.Is(err, fs.ErrNotExist) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Dataset.TimeField < 0 {
		return ErrNegativeTimeField
	}
	if err := channel.ValidateAll(cfg.Dataset.Channels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChannels, err)
	}
	for _, w := range cfg.Dataset.RollupWindows {
		if w.Milliseconds() <= 0 {
			return ErrInvalidRollupWindow
		}
	}
	if strings.TrimSpace(cfg.Dataset.Aggregator) == "" {
		return ErrEmptyAggregator
	}
	if cfg.Viewport.PixelWidth <= 0 {
		return ErrInvalidPixelWidth
	}
	if cfg.Viewport.MinDuration < 0 {
		return ErrInvalidMinDuration
	}
	if cfg.Viewport.InitialEnd <= cfg.Viewport.InitialBegin {
		return ErrInvalidInitialRange
	}
	if cfg.Kafka.MaxRows < 0 {
		return ErrInvalidKafkaMaxRows
	}
	if cfg.Kafka.IdleTimeout <= 0 {
		return ErrInvalidKafkaIdleLimit
	}
	return nil
}
