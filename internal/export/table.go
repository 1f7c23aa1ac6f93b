package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/sanspareilsmyn/ridelens/internal/pipeline"
	"github.com/sanspareilsmyn/ridelens/internal/viewport"
)

// WriteSummary renders one line per channel with its point counts and
// statistics, followed by the row accounting of the load.
func WriteSummary(w io.Writer, ds *pipeline.Dataset) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Channel", "Label", "Units", "Points", "Valid", "Gaps", "Avg", "Min", "Max", "Rollups"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	report := ds.Report()
	var data [][]string
	for _, c := range ds.Channels() {
		avg, lo, hi := "-", "-", "-"
		if sum, err := c.Summary(); err == nil {
			avg, lo, hi = c.Spec.Format(sum.Avg), c.Spec.Format(sum.Min), c.Spec.Format(sum.Max)
		}
		data = append(data, []string{
			c.Name(),
			c.Spec.Label,
			c.Spec.Units,
			strconv.Itoa(c.Raw().Len()),
			strconv.Itoa(c.Raw().ValidCount()),
			strconv.Itoa(report.Gaps[c.Name()]),
			avg,
			lo,
			hi,
			formatWindows(c),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Rows: %d read, %d accepted, %d malformed, %d out of order\n",
		report.RowsTotal, report.RowsAccepted, report.RowsMalformed, report.RowsRegressive)
	return err
}

func formatWindows(c *pipeline.Channel) string {
	levels := c.Levels()
	if len(levels) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		parts = append(parts, fmt.Sprintf("%v (%d)", l.Window, l.Store.Len()))
	}
	return strings.Join(parts, " ")
}

// WriteReadout renders the tracker readout: the tracker time and each
// visible channel's value under it, with the resolution that was used.
func WriteReadout(w io.Writer, ds *pipeline.Dataset, state *viewport.ViewState, pixelWidth int) error {
	readings, err := viewport.Readout(ds, state, pixelWidth)
	if err != nil {
		return err
	}
	domain, err := ds.Domain()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()
	table.Header([]string{"Channel", "Value", "Units", "Resolution"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range readings {
		c, _ := ds.Channel(r.Channel)
		window, err := viewport.Window(c, state.Visible, pixelWidth)
		if err != nil {
			return err
		}
		data = append(data, []string{r.Label, r.Text, r.Units, formatResolution(window)})
	}

	if _, err := fmt.Fprintf(w, "Tracker %s\n", viewport.FormatTracker(state, domain.Begin)); err != nil {
		return err
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func formatResolution(window time.Duration) string {
	if window == 0 {
		return "raw"
	}
	return window.String()
}
