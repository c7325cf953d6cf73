package meminfo

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher decides whether a field name is selected.
type Matcher interface {
	Match(name string) bool
}

// Pattern matches names against an anchored regular expression.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// CompilePattern builds a Pattern from one or more alternatives. The whole name must
// match. No alternatives, or a single empty one, selects every name.
func CompilePattern(alternatives ...string) (*Pattern, error) {
	var parts []string
	for _, a := range alternatives {
		if a != "" {
			parts = append(parts, a)
		}
	}

	expr := ".*"
	if len(parts) > 0 {
		expr = strings.Join(parts, "|")
	}

	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{expr: expr, re: re}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(alternatives ...string) *Pattern {
	p, err := CompilePattern(alternatives...)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches the pattern.
func (p *Pattern) Match(name string) bool {
	return p.re.MatchString(name)
}

// String returns the unanchored expression.
func (p *Pattern) String() string {
	return p.expr
}

// Names matches an exact, case-sensitive set of names.
type Names map[string]struct{}

// NewNames builds a Names set.
func NewNames(names ...string) Names {
	n := make(Names, len(names))
	for _, name := range names {
		n[name] = struct{}{}
	}
	return n
}

// Match reports whether name is in the set.
func (n Names) Match(name string) bool {
	_, ok := n[name]
	return ok
}

type anyOf []Matcher

func (a anyOf) Match(name string) bool {
	for _, m := range a {
		if m != nil && m.Match(name) {
			return true
		}
	}
	return false
}

// Any returns a matcher selecting names accepted by at least one of ms.
func Any(ms ...Matcher) Matcher {
	return anyOf(ms)
}

// Nothing matches no name.
var Nothing Matcher = Names(nil)
