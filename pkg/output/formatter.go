// Package output renders the metric catalog and recorded series for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/danpilch/memsample/pkg/engine"
	"github.com/danpilch/memsample/pkg/meminfo"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatTSV   Format = "tsv"
)

// Series is a metric together with its recorded points.
type Series struct {
	Metric engine.Descriptor `json:"metric"`
	Points []engine.Point    `json:"points"`
}

// Summary condenses a series for display.
type Summary struct {
	Name    string       `json:"name"`
	ID      int64        `json:"id"`
	Unit    meminfo.Unit `json:"unit"`
	Samples int          `json:"samples"`
	Min     int64        `json:"min"`
	Max     int64        `json:"max"`
	Last    int64        `json:"last"`
}

// Summarize computes min, max and last value of a series.
func Summarize(s Series) Summary {
	sum := Summary{
		Name:    s.Metric.Name,
		ID:      s.Metric.ID,
		Unit:    s.Metric.Unit,
		Samples: len(s.Points),
	}
	for i, p := range s.Points {
		if i == 0 || p.Value < sum.Min {
			sum.Min = p.Value
		}
		if i == 0 || p.Value > sum.Max {
			sum.Max = p.Value
		}
		sum.Last = p.Value
	}
	return sum
}

// Formatter handles output formatting.
type Formatter struct {
	format     Format
	writer     io.Writer
	trendWidth int
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format:     format,
		writer:     writer,
		trendWidth: 30,
	}
}

// SetTrendWidth sets the maximum sparkline width in the series table.
func (f *Formatter) SetTrendWidth(n int) {
	if n > 0 {
		f.trendWidth = n
	}
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
}

// FormatValue renders a value in its unit: human-readable sizes for bytes,
// the plain number for counts.
func FormatValue(v int64, unit meminfo.Unit) string {
	if unit == meminfo.UnitBytes {
		return meminfo.FormatSize(v)
	}
	return strconv.FormatInt(v, 10)
}

// RenderCatalog outputs the discovered metrics.
func (f *Formatter) RenderCatalog(descs []engine.Descriptor) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(struct {
			Metrics []engine.Descriptor `json:"metrics"`
		}{Metrics: nonNil(descs)})
	case FormatTSV:
		fmt.Fprintln(f.writer, "ID\tNAME\tUNIT")
		for _, d := range descs {
			fmt.Fprintf(f.writer, "%d\t%s\t%s\n", d.ID, d.Name, d.Unit)
		}
		return nil
	}

	fmt.Fprintln(f.writer, titleStyle.Render("Discovered Metrics"))

	rows := make([][]string, len(descs))
	for i, d := range descs {
		rows[i] = []string{strconv.FormatInt(d.ID, 10), d.Name, d.Unit.String()}
	}
	fmt.Fprintln(f.writer, newTable([]string{"ID", "METRIC", "UNIT"}, rows))
	fmt.Fprintln(f.writer, dimStyle.Render(fmt.Sprintf("%d metrics", len(descs))))
	return nil
}

// RenderSeries outputs recorded series, one row per metric.
func (f *Formatter) RenderSeries(series []Series) error {
	switch f.format {
	case FormatJSON:
		return f.encodeJSON(struct {
			Series []Series `json:"series"`
		}{Series: nonNil(series)})
	case FormatTSV:
		fmt.Fprintln(f.writer, "ID\tNAME\tUNIT\tSAMPLES\tMIN\tMAX\tLAST")
		for _, s := range series {
			sum := Summarize(s)
			fmt.Fprintf(f.writer, "%d\t%s\t%s\t%d\t%d\t%d\t%d\n",
				sum.ID, sum.Name, sum.Unit, sum.Samples, sum.Min, sum.Max, sum.Last)
		}
		return nil
	}

	fmt.Fprintln(f.writer, titleStyle.Render("Recorded Series"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	rows := make([][]string, 0, len(series))
	for _, s := range series {
		sum := Summarize(s)
		if sum.Samples == 0 {
			rows = append(rows, []string{sum.Name, "0", "-", "-", "-", ""})
			continue
		}
		rows = append(rows, []string{
			sum.Name,
			strconv.Itoa(sum.Samples),
			FormatValue(sum.Min, sum.Unit),
			FormatValue(sum.Max, sum.Unit),
			FormatValue(sum.Last, sum.Unit),
			Trend(s.Points, f.trendWidth),
		})
	}
	fmt.Fprintln(f.writer, newTable([]string{"METRIC", "SAMPLES", "MIN", "MAX", "LAST", "TREND"}, rows))
	return nil
}

func (f *Formatter) encodeJSON(v any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
