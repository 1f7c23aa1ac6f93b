package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/ridelens/internal/config"
	"github.com/sanspareilsmyn/ridelens/internal/export"
	"github.com/sanspareilsmyn/ridelens/internal/logging"
	"github.com/sanspareilsmyn/ridelens/internal/pipeline"
	"github.com/sanspareilsmyn/ridelens/internal/series"
	"github.com/sanspareilsmyn/ridelens/internal/source"
	"github.com/sanspareilsmyn/ridelens/internal/viewport"
)

const watchDebounce = 250 * time.Millisecond

var (
	configFile = flag.String("config", "", "Path to the configuration file (built-in defaults when empty)")
	inputPath  = flag.String("input", "", "Path to the ride file (csv or fit)")
	format     = flag.String("format", source.FormatCSV, "Input format: csv, fit or kafka")
	exportPath = flag.String("export", "", "Write every series to this Parquet file after each load")
	watch      = flag.Bool("watch", false, "Reload whenever the input file changes")
	tracker    = flag.String("tracker", "", "Print channel values at this offset from the ride start, e.g. 1h30m")
	logger     *zap.Logger
)

func main() {
	// Initialize Configuration
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %q: %v\n", *configFile, err)
		os.Exit(1)
	}

	var trackerOffset *time.Duration
	if *tracker != "" {
		d, err := time.ParseDuration(*tracker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Invalid -tracker value %q: %v\n", *tracker, err)
			os.Exit(1)
		}
		trackerOffset = &d
	}

	// Initialize Logger
	var logErr error
	logger, logErr = logging.NewLogger(cfg.Log)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", logErr)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync() // Flush buffered logs on exit
	}()

	sugar := logger.Sugar()
	sugar.Infow("Logger initialized",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
	)
	sugar.Infow("Configuration loaded successfully", "path", *configFile)

	loader, err := pipeline.NewLoader(cfg.Dataset, logger.Named("pipeline"))
	if err != nil {
		sugar.Fatalw("Failed to initialize loader", "error", err)
	}
	src, err := source.New(*format, *inputPath, cfg.Kafka, logger.Named("source"))
	if err != nil {
		sugar.Fatalw("Failed to initialize source", "error", err, "format", *format)
	}

	// Handle Graceful Shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{cfg: cfg, loader: loader, src: src, trackerOffset: trackerOffset, logger: logger.Named("app")}
	if err := a.reload(ctx); err != nil && !*watch {
		sugar.Errorw("Initial load failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	if !*watch && cfg.Metrics.Addr == "" {
		sugar.Info("RideLens finished.")
		return
	}

	runErr := a.serve(ctx, *watch)

	// Evaluate Result
	finalLogLevel := zapcore.InfoLevel
	shutdownReason := "gracefully"
	var finalErrorField = zap.Skip()
	if runErr != nil {
		shutdownReason = "due to error"
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
	}
	logger.Log(finalLogLevel, fmt.Sprintf("RideLens shutdown %s.", shutdownReason),
		zap.String("reason", shutdownReason),
		finalErrorField,
	)
	if runErr != nil {
		_ = logger.Sync()
		os.Exit(1)
	}
}

type app struct {
	cfg           *config.Config
	loader        *pipeline.Loader
	src           source.RowSource
	trackerOffset *time.Duration
	logger        *zap.Logger

	mu sync.Mutex // serialises terminal output between reloads
}

// reload loads the source and prints the result.
func (a *app) reload(ctx context.Context) error {
	ds, err := a.loader.Load(ctx, a.src)
	if err != nil {
		if errors.Is(err, pipeline.ErrLoadSuperseded) {
			return nil
		}
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if ds != a.loader.Snapshot().Dataset {
		return nil
	}

	if err := export.WriteSummary(os.Stdout, ds); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if a.trackerOffset != nil {
		if err := a.printReadout(ds); err != nil {
			return fmt.Errorf("writing readout: %w", err)
		}
	}
	if *exportPath != "" {
		n, err := export.WriteParquetFile(*exportPath, ds)
		if err != nil {
			return fmt.Errorf("exporting parquet: %w", err)
		}
		a.logger.Info("Parquet export written", zap.String("path", *exportPath), zap.Int("rows", n))
	}
	return nil
}

func (a *app) printReadout(ds *pipeline.Dataset) error {
	domain, err := ds.Domain()
	if err != nil {
		return err
	}
	vp := a.cfg.Viewport
	requested := series.NewTimeRange(
		domain.Begin+vp.InitialBegin.Milliseconds(),
		domain.Begin+vp.InitialEnd.Milliseconds(),
	)
	state := viewport.NewViewState(ds, viewport.Clamp(requested, domain, vp.MinDuration))
	state.SetTracker(domain.Begin + a.trackerOffset.Milliseconds())
	return export.WriteReadout(os.Stdout, ds, state, vp.PixelWidth)
}

// serve runs the metrics listener and the file watcher until ctx is done
// or one of them fails.
func (a *app) serve(ctx context.Context, watch bool) error {
	if watch && *inputPath == "" {
		return fmt.Errorf("-watch needs a file input: %w", source.ErrMissingInput)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sugar := a.logger.Sugar()
	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if addr := a.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		wg.Add(1)
		go func() {
			defer wg.Done()
			sugar.Infow("Serving metrics", "addr", addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	if watch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			onChange := func() {
				sugar.Infow("Input changed, reloading", "path", *inputPath)
				if err := a.reload(ctx); err != nil {
					sugar.Errorw("Reload failed", zap.Error(err))
				}
			}
			if err := source.Watch(ctx, *inputPath, watchDebounce, onChange, a.logger.Named("watch")); err != nil {
				errCh <- err
			}
		}()
	}

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Shutdown signal received, stopping...")
	case firstErr = <-errCh:
		sugar.Errorw("Service stopped unexpectedly, shutting down", zap.Error(firstErr))
	}
	cancel()
	wg.Wait()
	return firstErr
}
