package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/ridelens/internal/channel"
)

// State is the lifecycle position of the loader's most recent load.
type State int

const (
	Empty State = iota
	Building
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Building:
		return "building"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is a consistent view of the loader.
//
// Dataset always points at the last Ready dataset (nil if there was none),
// whatever the state. A Failed load carries the reason in Err and leaves
// Dataset untouched.
type Snapshot struct {
	State      State
	Dataset    *Dataset
	Err        error
	Generation uint64
}

// Loader owns the current dataset and serialises replacements. Loads may be
// started from any goroutine; the newest started load wins and the results
// of older in-flight loads are discarded when they finish.
type Loader struct {
	opts    Options
	builder *channel.Builder
	logger  *zap.Logger

	mu     sync.RWMutex
	latest  uint64   // generation of the newest started load
	snap    Snapshot // current view, Building while a load runs
	settled Snapshot // last published outcome, restored when a load is cancelled
}

// Snapshot returns the current state and dataset.
func (l *Loader) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Load reads rows from src and builds a new dataset. On success the dataset
// becomes current and is returned. If another load was started while this one
// ran, the result is dropped and ErrLoadSuperseded is returned. Cancelling
// ctx has the same effect on the outcome: the build itself is never
// interrupted, its result is simply not published and the loader returns to
// the state it had before the load started. A failed load keeps the previous
// dataset current.
func (l *Loader) Load(ctx context.Context, src Source) (*Dataset, error) {
	gen := l.begin()
	started := time.Now()
	sugar := l.logger.Sugar()
	sugar.Debugw("Load started", "generation", gen)

	ds, err := l.build(ctx, src)
	if err == nil {
		ds.generation = gen
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		ds, err = nil, fmt.Errorf("%w: %w", ErrLoadSuperseded, ctxErr)
	}

	result, commitErr := l.commit(gen, ds, err)
	loadDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
	loadsTotal.WithLabelValues(result).Inc()

	switch result {
	case resultReady:
		sugar.Infow("Dataset ready",
			"generation", gen,
			"channels", len(ds.order),
			"rows_accepted", ds.report.RowsAccepted,
			"elapsed", time.Since(started),
		)
		recordDataset(ds)
		return ds, nil
	case resultSuperseded:
		sugar.Infow("Discarding superseded load", "generation", gen, zap.Error(commitErr))
	default:
		sugar.Errorw("Dataset load failed", "generation", gen, zap.Error(commitErr))
	}
	return nil, commitErr
}

// LoadRows is Load for rows that are already in memory.
func (l *Loader) LoadRows(ctx context.Context, rows StaticSource) (*Dataset, error) {
	return l.Load(ctx, rows)
}

func (l *Loader) build(ctx context.Context, src Source) (*Dataset, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceFailed, err)
	}
	return Build(rows, l.opts, l.builder)
}

// begin registers a new load and moves the loader to Building.
func (l *Loader) begin() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.latest++
	if l.snap.State != Building {
		l.settled = l.snap
	}
	l.snap.State = Building
	l.snap.Err = nil
	l.snap.Generation = l.latest
	loaderState.Set(float64(Building))
	return l.latest
}

// commit publishes the outcome of load gen if it is still the newest one.
func (l *Loader) commit(gen uint64, ds *Dataset, err error) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.latest {
		if err == nil || errors.Is(err, ErrLoadSuperseded) {
			return resultSuperseded, ErrLoadSuperseded
		}
		return resultSuperseded, fmt.Errorf("%w: %w", ErrLoadSuperseded, err)
	}
	if errors.Is(err, ErrLoadSuperseded) {
		l.snap = l.settled
		loaderState.Set(float64(l.snap.State))
		return resultSuperseded, err
	}
	if err != nil {
		l.snap = Snapshot{State: Failed, Dataset: l.snap.Dataset, Err: err, Generation: gen}
		l.settled = l.snap
		loaderState.Set(float64(Failed))
		return resultFailed, err
	}
	l.snap = Snapshot{State: Ready, Dataset: ds, Generation: gen}
	l.settled = l.snap
	loaderState.Set(float64(Ready))
	return resultReady, nil
}
