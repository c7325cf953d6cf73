package baseline

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/danpilch/memsample/pkg/output"
)

// Severity indicates the magnitude of a metric drift.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityGrowth   Severity = "growth"
)

// Comparison holds the drift analysis for a single metric.
type Comparison struct {
	Metric      string       `json:"metric"`
	Unit        meminfo.Unit `json:"unit"`
	BaselineVal int64        `json:"baseline"`
	CurrentVal  int64        `json:"current"`
	DeltaPct    float64      `json:"delta_pct"`
	Severity    Severity     `json:"severity"`
}

var (
	blTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	blHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	blDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	blWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	blErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blMinor  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Compare matches metrics by name and calculates drift. Metrics missing on
// either side are skipped.
func Compare(baseline *Baseline, current []meminfo.Sample) []Comparison {
	baselineMap := make(map[string]meminfo.Sample, len(baseline.Metrics))
	for _, m := range baseline.Metrics {
		baselineMap[m.Name] = m
	}

	var comparisons []Comparison
	for _, cur := range current {
		base, ok := baselineMap[cur.Name]
		if !ok {
			continue
		}

		var deltaPct float64
		if base.Value != 0 {
			deltaPct = float64(cur.Value-base.Value) / math.Abs(float64(base.Value)) * 100
		} else if cur.Value != 0 {
			deltaPct = 100
		}

		comparisons = append(comparisons, Comparison{
			Metric:      cur.Name,
			Unit:        cur.Unit,
			BaselineVal: base.Value,
			CurrentVal:  cur.Value,
			DeltaPct:    deltaPct,
			Severity:    classifySeverity(deltaPct),
		})
	}

	return comparisons
}

func classifySeverity(deltaPct float64) Severity {
	absDelta := math.Abs(deltaPct)
	if absDelta < 5 {
		return SeverityNone
	}
	if absDelta < 15 {
		return SeverityMinor
	}
	if absDelta < 30 {
		return SeverityModerate
	}
	if deltaPct > 0 {
		return SeverityGrowth
	}
	return SeverityMajor
}

// Significant counts comparisons of major or growth severity.
func Significant(comparisons []Comparison) int {
	n := 0
	for _, c := range comparisons {
		if c.Severity == SeverityMajor || c.Severity == SeverityGrowth {
			n++
		}
	}
	return n
}

// RenderComparison outputs a styled comparison table.
func RenderComparison(w io.Writer, baseline *Baseline, comparisons []Comparison) {
	fmt.Fprintln(w, blTitle.Render("Baseline Comparison"))
	fmt.Fprintln(w, blDim.Render(strings.Repeat("═", 90)))
	fmt.Fprintf(w, "Comparing against %s (from %s)\n\n",
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", baseline.Name)),
		blDim.Render(baseline.Timestamp.Format("2006-01-02 15:04:05")))

	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		blHeader.Render("METRIC                  "),
		blHeader.Render("BASELINE    "),
		blHeader.Render("CURRENT     "),
		blHeader.Render("DELTA    "),
		blHeader.Render("SEVERITY  "))
	fmt.Fprintln(w, "  "+blDim.Render(strings.Repeat("─", 90)))

	for _, c := range comparisons {
		deltaStr := fmt.Sprintf("%+.1f%%", c.DeltaPct)
		var sevStr string
		switch c.Severity {
		case SeverityGrowth:
			sevStr = blErr.Render("GROWTH")
		case SeverityMajor:
			sevStr = blErr.Render("MAJOR")
		case SeverityModerate:
			sevStr = blWarn.Render("moderate")
		case SeverityMinor:
			sevStr = blMinor.Render("minor")
		default:
			sevStr = blOK.Render("none")
		}

		fmt.Fprintf(w, "  %-25s %-14s %-14s %-10s %s\n",
			c.Metric, output.FormatValue(c.BaselineVal, c.Unit), output.FormatValue(c.CurrentVal, c.Unit), deltaStr, sevStr)
	}

	fmt.Fprintln(w)
	if n := Significant(comparisons); n > 0 {
		fmt.Fprintf(w, "  %s\n", blErr.Render(fmt.Sprintf("%d metrics drifted significantly.", n)))
	} else {
		fmt.Fprintf(w, "  %s\n", blOK.Render("No significant drift detected."))
	}
}
