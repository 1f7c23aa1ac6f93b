package pipeline

import (
	"time"

	"github.com/sanspareilsmyn/ridelens/internal/channel"
	"github.com/sanspareilsmyn/ridelens/internal/rollup"
	"github.com/sanspareilsmyn/ridelens/internal/series"
)

// Channel is one prepared measurement: its configuration, the raw store and
// the rollup levels built for display, finest first.
type Channel struct {
	Spec    channel.Spec
	Series  *series.Store
	Rollups []rollup.Level
}

// Summary holds the scalar statistics shown next to a channel's chart.
type Summary struct {
	Avg float64
	Min float64
	Max float64
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.Spec.Name }

// Raw returns the un-rolled-up store.
func (c *Channel) Raw() *series.Store { return c.Series }

// Levels returns the rollup levels, finest first.
func (c *Channel) Levels() []rollup.Level { return c.Rollups }

// Level returns the rollup store built for exactly the given window.
func (c *Channel) Level(window time.Duration) (*series.Store, bool) {
	for _, l := range c.Rollups {
		if l.Window == window {
			return l.Store, true
		}
	}
	return nil, false
}

// Summary returns avg/min/max over the channel's valid values. It fails with
// series.ErrEmptyStore when the channel holds no values.
func (c *Channel) Summary() (Summary, error) {
	avg, err := c.Series.Avg()
	if err != nil {
		return Summary{}, err
	}
	lo, _ := c.Series.Min()
	hi, _ := c.Series.Max()
	return Summary{Avg: avg, Min: lo, Max: hi}, nil
}

// Dataset is the complete, immutable result of one load.
type Dataset struct {
	generation uint64
	channels   map[string]*Channel
	order      []string
	report     channel.Report
}

// Generation identifies the load that produced the dataset.
func (d *Dataset) Generation() uint64 { return d.generation }

// Report returns the row accounting of the build.
func (d *Dataset) Report() channel.Report { return d.report }

// Names returns channel names in configuration order.
func (d *Dataset) Names() []string {
	return append([]string(nil), d.order...)
}

// Channel looks up a channel by name.
func (d *Dataset) Channel(name string) (*Channel, bool) {
	c, ok := d.channels[name]
	return c, ok
}

// Channels returns the channels in configuration order.
func (d *Dataset) Channels() []*Channel {
	out := make([]*Channel, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.channels[name])
	}
	return out
}

// Domain returns the time span covered by all non-empty channels. It is
// the pan/zoom limit for the whole dataset.
func (d *Dataset) Domain() (series.TimeRange, error) {
	var (
		domain series.TimeRange
		found  bool
	)
	for _, name := range d.order {
		r, err := d.channels[name].Series.Range()
		if err != nil {
			continue
		}
		if !found {
			domain, found = r, true
			continue
		}
		domain = domain.Union(r)
	}
	if !found {
		return series.TimeRange{}, series.ErrEmptyStore
	}
	return domain, nil
}
