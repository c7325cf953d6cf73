package meminfo

// Derived metric names.
const (
	MemUsed  = "MemUsed"
	SwapUsed = "SwapUsed"
)

// Rule computes a derived counter from base counters of the same pass.
type Rule struct {
	Name    string
	Inputs  []string
	Combine func(in []int64) int64
}

// first minus the rest
func difference(in []int64) int64 {
	v := in[0]
	for _, x := range in[1:] {
		v -= x
	}
	return v
}

// Rules are the derived counters in the order they are discovered.
var Rules = []Rule{
	{Name: MemUsed, Inputs: []string{MemTotal, MemFree, Buffers, Cached}, Combine: difference},
	{Name: SwapUsed, Inputs: []string{SwapTotal, SwapFree, SwapCached}, Combine: difference},
}

// Eval evaluates the rule against pass. It reports false when any input is missing
// or is not byte-denominated.
func (r Rule) Eval(pass Pass) (Sample, bool) {
	in := make([]int64, 0, len(r.Inputs))
	for _, name := range r.Inputs {
		s, ok := pass.Base(name)
		if !ok || s.Unit != UnitBytes {
			return Sample{}, false
		}
		in = append(in, s.Value)
	}
	return Sample{Name: r.Name, Value: r.Combine(in), Unit: UnitBytes}, true
}

// Synthesize returns the derived counters accepted by report that can be computed
// from pass.
func Synthesize(pass Pass, report Matcher) []Sample {
	var out []Sample
	for _, r := range Rules {
		if report == nil || !report.Match(r.Name) {
			continue
		}
		if s, ok := r.Eval(pass); ok {
			out = append(out, s)
		}
	}
	return out
}
