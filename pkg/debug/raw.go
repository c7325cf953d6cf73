package debug

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/memsample/pkg/meminfo"
)

// RawField is one line of the source as the parser sees it.
type RawField struct {
	meminfo.RawField
	Value    int64
	Unit     meminfo.Unit
	Err      error
	Reported bool
	Internal bool
	Derived  bool
}

// CollectRawFields parses r and annotates every field with its normalized
// value and whether report or the mandatory set would pick it up. Derived
// metrics that can be computed are appended at the end.
func CollectRawFields(r io.Reader, report meminfo.Matcher) ([]RawField, error) {
	if report == nil {
		report = meminfo.Nothing
	}

	var fields []RawField
	var text strings.Builder
	tee := io.TeeReader(r, &text)

	err := meminfo.Scan(tee, func(f meminfo.RawField) {
		value, unit, err := meminfo.Normalize(f.Raw, f.Suffix)
		fields = append(fields, RawField{
			RawField: f,
			Value:    value,
			Unit:     unit,
			Err:      err,
			Reported: report.Match(f.Name),
			Internal: meminfo.Mandatory.Match(f.Name),
		})
	})
	if err != nil {
		return nil, err
	}

	pass, err := meminfo.Parse(strings.NewReader(text.String()), nil, meminfo.Mandatory)
	if err != nil {
		return nil, err
	}
	for _, rule := range meminfo.Rules {
		s, ok := rule.Eval(pass)
		if !ok {
			continue
		}
		fields = append(fields, RawField{
			RawField: meminfo.RawField{Name: s.Name},
			Value:    s.Value,
			Unit:     s.Unit,
			Reported: report.Match(s.Name),
			Derived:  true,
		})
	}
	return fields, nil
}

// DumpRawFields outputs every parsed field with its raw and normalized value.
func DumpRawFields(w io.Writer, fields []RawField) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.Render("Raw Fields Dump"))
	fmt.Fprintln(w, dim.Render(strings.Repeat("═", 85)))
	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		header.Render("FIELD                   "),
		header.Render("RAW           "),
		header.Render("VALUE               "),
		header.Render("UNIT "),
		header.Render("FLAGS     "))
	fmt.Fprintln(w, "  "+dim.Render(strings.Repeat("─", 85)))

	for _, f := range fields {
		raw := "-"
		if !f.Derived {
			raw = strings.TrimSpace(strconv.FormatInt(f.Raw, 10) + " " + f.Suffix)
		}
		value := strconv.FormatInt(f.Value, 10)
		if f.Err != nil {
			value = f.Err.Error()
		}
		fmt.Fprintf(w, "  %-25s %-15s %-21s %-6s %s\n",
			f.Name, raw, value, f.Unit, dim.Render(flags(f)))
	}
}

func flags(f RawField) string {
	var out []string
	if f.Reported {
		out = append(out, "reported")
	}
	if f.Internal {
		out = append(out, "mandatory")
	}
	if f.Derived {
		out = append(out, "derived")
	}
	return strings.Join(out, ",")
}
