package crosscheck

import (
	"fmt"

	"github.com/danpilch/memsample/pkg/meminfo"
)

// SanityResult holds the outcome of a physical constraint check.
type SanityResult struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

// bound is a constraint of the form part <= whole.
type bound struct {
	part, whole string
}

var bounds = []bound{
	{meminfo.MemFree, meminfo.MemTotal},
	{meminfo.SwapFree, meminfo.SwapTotal},
	{meminfo.MemUsed, meminfo.MemTotal},
	{meminfo.SwapUsed, meminfo.SwapTotal},
}

// RunSanityChecks validates one parsed pass against physical constraints:
// every byte counter is non-negative and free or used memory never exceeds
// the total it belongs to.
func RunSanityChecks(pass meminfo.Pass) []SanityResult {
	values := make(map[string]meminfo.Sample)
	for _, name := range pass.BaseNames() {
		s, _ := pass.Base(name)
		values[name] = s
	}
	for _, s := range meminfo.Synthesize(pass, meminfo.NewNames(meminfo.MemUsed, meminfo.SwapUsed)) {
		values[s.Name] = s
	}

	var results []SanityResult

	for _, name := range append(meminfo.MandatoryFields(), meminfo.MemUsed, meminfo.SwapUsed) {
		s, ok := values[name]
		if !ok {
			results = append(results, SanityResult{
				Check:   fmt.Sprintf("%s present", name),
				Passed:  false,
				Details: "field not found",
			})
			continue
		}
		if s.Value < 0 {
			results = append(results, SanityResult{
				Check:   fmt.Sprintf("%s non-negative", name),
				Passed:  false,
				Details: fmt.Sprintf("negative value: %d", s.Value),
			})
		}
	}

	for _, b := range bounds {
		part, okPart := values[b.part]
		whole, okWhole := values[b.whole]
		if !okPart || !okWhole {
			continue
		}
		check := fmt.Sprintf("%s <= %s", b.part, b.whole)
		if part.Value > whole.Value {
			results = append(results, SanityResult{
				Check:   check,
				Passed:  false,
				Details: fmt.Sprintf("%s exceeds %s", meminfo.FormatSize(part.Value), meminfo.FormatSize(whole.Value)),
			})
			continue
		}
		results = append(results, SanityResult{
			Check:   check,
			Passed:  true,
			Details: fmt.Sprintf("%s of %s", meminfo.FormatSize(part.Value), meminfo.FormatSize(whole.Value)),
		})
	}

	return results
}
