package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	loadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridelens_load_duration_seconds",
			Help:    "Time spent building channels and rollups for one dataset load.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"result"}, // ready, failed, superseded
	)
	loadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridelens_loads_total",
			Help: "Total number of dataset loads by final result.",
		},
		[]string{"result"},
	)
	rowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridelens_rows_total",
			Help: "Rows seen by the channel builder, by outcome.",
		},
		[]string{"outcome"}, // accepted, malformed, regressive
	)
	gapsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridelens_gaps_inserted_total",
			Help: "Gap markers inserted for sensor dropouts.",
		},
		[]string{"channel"},
	)
	channelPoints = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridelens_channel_points",
			Help: "Number of raw points in each channel of the current dataset.",
		},
		[]string{"channel"},
	)
	rollupPoints = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ridelens_rollup_points",
			Help: "Number of points in each rollup level of the current dataset.",
		},
		[]string{"channel", "window"},
	)
	loaderState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ridelens_loader_state",
			Help: "Current loader state (0 empty, 1 building, 2 ready, 3 failed).",
		},
	)
)

const (
	resultReady      = "ready"
	resultFailed     = "failed"
	resultSuperseded = "superseded"
)

// recordDataset publishes the shape of a dataset that just became current.
func recordDataset(ds *Dataset) {
	rep := ds.Report()
	rowsTotal.WithLabelValues("accepted").Add(float64(rep.RowsAccepted))
	rowsTotal.WithLabelValues("malformed").Add(float64(rep.RowsMalformed))
	rowsTotal.WithLabelValues("regressive").Add(float64(rep.RowsRegressive))

	channelPoints.Reset()
	rollupPoints.Reset()
	for _, c := range ds.Channels() {
		gapsInserted.WithLabelValues(c.Name()).Add(float64(rep.Gaps[c.Name()]))
		channelPoints.WithLabelValues(c.Name()).Set(float64(c.Series.Len()))
		for _, l := range c.Rollups {
			rollupPoints.WithLabelValues(c.Name(), l.Window.String()).Set(float64(l.Store.Len()))
		}
	}
}
