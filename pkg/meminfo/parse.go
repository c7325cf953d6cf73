// Package meminfo parses the kernel memory-info table into normalized counters.
package meminfo

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
)

// Base counter names required by the derived metrics.
const (
	MemTotal   = "MemTotal"
	MemFree    = "MemFree"
	Buffers    = "Buffers"
	Cached     = "Cached"
	SwapTotal  = "SwapTotal"
	SwapFree   = "SwapFree"
	SwapCached = "SwapCached"
)

var mandatoryNames = []string{MemTotal, MemFree, Buffers, Cached, SwapTotal, SwapFree, SwapCached}

// Mandatory selects the base counters every parse pass keeps for internal use.
var Mandatory Matcher = NewNames(mandatoryNames...)

// MandatoryFields returns the base counter names in canonical order.
func MandatoryFields() []string {
	out := make([]string, len(mandatoryNames))
	copy(out, mandatoryNames)
	return out
}

// RawField is one matched line before normalization.
type RawField struct {
	Name   string
	Raw    int64
	Suffix string
}

// Sample is a normalized counter value.
type Sample struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Unit  Unit   `json:"unit"`
}

// Pass is the result of parsing one read of the source. It is built fresh for every
// read and never mutated afterwards.
type Pass struct {
	// Reported holds the fields accepted by the report matcher, in line order.
	Reported []Sample
	base     map[string]Sample
}

// Base returns the base counter observed in this pass.
func (p Pass) Base(name string) (Sample, bool) {
	s, ok := p.base[name]
	return s, ok
}

// BaseNames returns the names of base counters seen in this pass.
func (p Pass) BaseNames() []string {
	var out []string
	for _, name := range mandatoryNames {
		if _, ok := p.base[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// <name>:<ws>*<digits>(<ws>?<unit>)?<trailing garbage>
var lineRe = regexp.MustCompile(`^([^:\s]+):[ \t]*([0-9]+)(?:[ \t]?([kKmMgGtT]?[bB]))?(?:[^A-Za-z0-9]|$)`)

// ParseLine extracts a field from a single line. Lines outside the field grammar are
// reported as not ok.
func ParseLine(line string) (RawField, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return RawField{}, false
	}

	raw, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return RawField{}, false
	}

	return RawField{Name: m[1], Raw: raw, Suffix: m[3]}, true
}

// Scan calls fn for every line of r that fits the field grammar.
func Scan(r io.Reader, fn func(RawField)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if f, ok := ParseLine(scanner.Text()); ok {
			fn(f)
		}
	}
	return scanner.Err()
}

// Parse reads a memory-info blob. Fields accepted by report end up in Pass.Reported;
// fields accepted by internal are kept as base counters. Lines that do not parse or
// whose value cannot be normalized are skipped.
func Parse(r io.Reader, report, internal Matcher) (Pass, error) {
	if report == nil {
		report = Nothing
	}
	if internal == nil {
		internal = Nothing
	}

	pass := Pass{base: make(map[string]Sample)}
	err := Scan(r, func(f RawField) {
		reported := report.Match(f.Name)
		used := internal.Match(f.Name)
		if !reported && !used {
			return
		}

		value, unit, err := Normalize(f.Raw, f.Suffix)
		if err != nil {
			return
		}

		s := Sample{Name: f.Name, Value: value, Unit: unit}
		if reported {
			pass.Reported = append(pass.Reported, s)
		}
		if used {
			pass.base[f.Name] = s
		}
	})
	return pass, err
}
