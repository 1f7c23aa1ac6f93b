// Package pipeline orchestrates one dataset load: rows are turned into
// channels, channels marked for display get rollup levels, and the finished
// dataset replaces the previous one only once it is complete.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/channel"
	"github.com/sanspareilsmyn/ridelens/internal/config"
	"github.com/sanspareilsmyn/ridelens/internal/record"
	"github.com/sanspareilsmyn/ridelens/internal/rollup"
)

// Source supplies the ordered rows of one dataset.
type Source interface {
	Rows(ctx context.Context) ([]record.Row, error)
}

// StaticSource serves rows that are already in memory.
type StaticSource []record.Row

// Rows returns the rows unchanged.
func (s StaticSource) Rows(context.Context) ([]record.Row, error) { return s, nil }

// Options is the resolved configuration of a build.
type Options struct {
	Layout        channel.Layout
	Channels      []channel.Spec
	RollupWindows []time.Duration
	Aggregator    rollup.Aggregator
}

// OptionsFromConfig resolves the dataset configuration into build options.
func OptionsFromConfig(cfg config.DatasetConfig) (Options, error) {
	agg, err := rollup.ByName(cfg.Aggregator)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	opts := Options{
		Layout:        channel.Layout{TimeField: cfg.TimeField, TimeUnit: cfg.TimeUnit},
		Channels:      slices.Clone(cfg.Channels),
		RollupWindows: slices.Clone(cfg.RollupWindows),
		Aggregator:    agg,
	}
	return opts, opts.validate()
}

func (o Options) validate() error {
	if err := channel.ValidateAll(o.Channels); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	for _, w := range o.RollupWindows {
		if w.Milliseconds() <= 0 {
			return fmt.Errorf("%w: %w: %v", ErrInvalidOptions, rollup.ErrInvalidWindow, w)
		}
	}
	return nil
}

// Build runs the whole preparation for rows. It fails with ErrEmptyInput when
// no row carries a usable timestamp; otherwise every configured channel is
// present in the result, possibly empty.
func Build(rows []record.Row, opts Options, builder *channel.Builder) (*Dataset, error) {
	stores, report, err := builder.Build(rows, opts.Channels)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if report.RowsAccepted == 0 {
		return nil, fmt.Errorf("%w: %d rows read, none accepted", ErrEmptyInput, report.RowsTotal)
	}

	ds := &Dataset{
		channels: make(map[string]*Channel, len(opts.Channels)),
		order:    make([]string, 0, len(opts.Channels)),
		report:   report,
	}
	for _, spec := range opts.Channels {
		c := &Channel{Spec: spec, Series: stores[spec.Name]}
		if spec.Rollup {
			levels, err := rollup.Levels(c.Series, opts.RollupWindows, opts.Aggregator)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrRollupFailed, spec.Name, err)
			}
			c.Rollups = levels
		}
		ds.channels[spec.Name] = c
		ds.order = append(ds.order, spec.Name)
	}
	return ds, nil
}

// NewLoader creates a Loader from the dataset configuration.
func NewLoader(cfg config.DatasetConfig, logger *zap.Logger) (*Loader, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	l := &Loader{
		opts:    opts,
		builder: channel.NewBuilder(opts.Layout, logger.Named("builder")),
		logger:  logger,
	}
	logger.Info("Loader initialized",
		zap.Int("channels", len(opts.Channels)),
		zap.Durations("rollup_windows", opts.RollupWindows),
		zap.String("aggregator", opts.Aggregator.Name()),
	)
	return l, nil
}
