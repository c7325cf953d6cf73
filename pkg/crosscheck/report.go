package crosscheck

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/memsample/pkg/meminfo"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	suspectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	passStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// MeminfoSource names readings taken from the meminfo text source.
const MeminfoSource = "meminfo"

// RunCrossChecks compares every base counter of pass that also appears in alt.
// Results are sorted by metric name.
func RunCrossChecks(pass meminfo.Pass, alt map[string]Source) []ValidationResult {
	validator := NewValidator()
	validator.Granularity = 1024

	var validations []ValidationResult
	for _, name := range pass.BaseNames() {
		other, ok := alt[name]
		if !ok {
			continue
		}
		s, _ := pass.Base(name)
		sources := []Source{
			{Name: MeminfoSource, Value: float64(s.Value), Unit: s.Unit.String()},
			other,
		}
		validations = append(validations, validator.CrossCheck(name, sources))
	}

	sort.Slice(validations, func(i, j int) bool { return validations[i].Metric < validations[j].Metric })
	return validations
}

func formatSource(s Source) string {
	if s.Unit == meminfo.UnitBytes.String() {
		return fmt.Sprintf("%s=%s", s.Name, meminfo.FormatSize(int64(s.Value)))
	}
	return fmt.Sprintf("%s=%.0f", s.Name, s.Value)
}

// Report outputs cross-check validation results and sanity checks.
func Report(w io.Writer, validations []ValidationResult, sanity []SanityResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Cross-Check Validation Report"))
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("═", 60)))

	if len(validations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Metric Cross-Checks"))
		fmt.Fprintf(w, "  %-25s %-12s %-10s %s\n",
			headerStyle.Render("METRIC"), headerStyle.Render("MAX DEV"),
			headerStyle.Render("STATUS"), headerStyle.Render("SOURCES"))
		fmt.Fprintln(w, "  "+dimStyle.Render(strings.Repeat("─", 80)))

		for _, v := range validations {
			sourceNames := make([]string, len(v.Sources))
			for i, s := range v.Sources {
				sourceNames[i] = formatSource(s)
			}
			var statusStr string
			switch v.Status {
			case StatusConflict:
				statusStr = conflictStyle.Render("CONFLICT")
			case StatusSuspect:
				statusStr = suspectStyle.Render("SUSPECT")
			default:
				statusStr = validStyle.Render("VALID")
			}
			fmt.Fprintf(w, "  %-25s %-11.2f%% %-10s %s\n",
				v.Metric, v.MaxDeviation, statusStr,
				dimStyle.Render(strings.Join(sourceNames, ", ")))
		}
	}

	if len(sanity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Sanity Checks"))
		failed := 0
		for _, s := range sanity {
			var icon string
			if s.Passed {
				icon = passStyle.Render("PASS")
			} else {
				icon = failStyle.Render("FAIL")
				failed++
			}
			fmt.Fprintf(w, "  [%s] %-40s %s\n", icon, s.Check, dimStyle.Render(s.Details))
		}
		fmt.Fprintln(w)
		if failed == 0 {
			fmt.Fprintf(w, "  %s\n", passStyle.Render(fmt.Sprintf("All %d sanity checks passed.", len(sanity))))
		} else {
			fmt.Fprintf(w, "  %s\n", failStyle.Render(fmt.Sprintf("%d of %d sanity checks failed.", failed, len(sanity))))
		}
	}
}

// ReportJSON outputs cross-check results as JSON.
func ReportJSON(w io.Writer, validations []ValidationResult, sanity []SanityResult) error {
	output := struct {
		Validations []ValidationResult `json:"validations"`
		Sanity      []SanityResult     `json:"sanity"`
	}{
		Validations: validations,
		Sanity:      sanity,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// Failed reports whether any validation conflicts or any sanity check failed.
func Failed(validations []ValidationResult, sanity []SanityResult) bool {
	for _, v := range validations {
		if v.Status == StatusConflict {
			return true
		}
	}
	for _, s := range sanity {
		if !s.Passed {
			return true
		}
	}
	return false
}
