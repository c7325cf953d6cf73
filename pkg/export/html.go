package export

import (
	"fmt"
	"io"

	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/danpilch/memsample/pkg/output"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

func init() {
	Register(&HTMLFormat{})
}

// HTMLFormat renders one line chart per metric into a standalone page.
type HTMLFormat struct{}

func (f *HTMLFormat) Name() string         { return "html" }
func (f *HTMLFormat) Extensions() []string { return []string{".html", ".htm"} }

func (f *HTMLFormat) Write(w io.Writer, run Run) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("memsample - %s", run.ID)

	for _, s := range run.Series {
		if len(s.Points) == 0 {
			continue
		}
		page.AddCharts(lineChart(s, run.ID.String()))
	}

	return page.Render(w)
}

func lineChart(s output.Series, runID string) *charts.Line {
	line := charts.NewLine()

	title := s.Metric.Name
	yName := "count"
	if s.Metric.Unit == meminfo.UnitBytes {
		title += " (bytes)"
		yName = "bytes"
	}

	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: runID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)

	xLabels := make([]string, len(s.Points))
	data := make([]opts.LineData, len(s.Points))
	for i, p := range s.Points {
		xLabels[i] = p.Time.Format("15:04:05.000")
		data[i] = opts.LineData{Value: p.Value}
	}

	line.SetXAxis(xLabels).AddSeries(s.Metric.Name, data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false), ShowSymbol: opts.Bool(len(s.Points) < 200)}),
	)
	return line
}
