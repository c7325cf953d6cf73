// Package benchmark measures how long one meminfo pass takes, to size the
// sampling interval and validate the sampler's own overhead.
package benchmark

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/memsample/pkg/meminfo"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int
	Warmup     int
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations: 200,
		Warmup:     10,
	}
}

// Stage names.
const (
	StageRead  = "read"
	StageParse = "parse"
	StagePass  = "pass"
)

// Result holds latency percentiles for one stage of a pass.
type Result struct {
	Stage       string
	Latencies   []time.Duration
	P50         time.Duration
	P95         time.Duration
	P99         time.Duration
	Fields      int
	ValueStdDev float64
}

// Overhead holds the tool's own resource usage.
type Overhead struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bmWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	bmOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

// stageFunc runs one stage and returns the number of fields it produced and,
// for stages that see parsed values, the MemFree reading.
type stageFunc func() (fields int, memFree int64, err error)

// Run benchmarks reading src, parsing a snapshot of it and a full pass
// (read, parse and synthesize) in that order.
func Run(src meminfo.Source, opts Options) ([]Result, error) {
	snapshot, err := readAll(src)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	all := meminfo.MustCompilePattern()
	stages := []struct {
		name string
		fn   stageFunc
	}{
		{StageRead, func() (int, int64, error) {
			b, err := readAll(src)
			return bytes.Count(b, []byte{'\n'}), 0, err
		}},
		{StageParse, func() (int, int64, error) {
			pass, err := meminfo.Parse(bytes.NewReader(snapshot), all, meminfo.Mandatory)
			return len(pass.Reported), memFree(pass), err
		}},
		{StagePass, func() (int, int64, error) {
			pass, err := meminfo.Read(src, all, meminfo.Mandatory)
			if err != nil {
				return 0, 0, err
			}
			derived := meminfo.Synthesize(pass, all)
			return len(pass.Reported) + len(derived), memFree(pass), nil
		}},
	}

	var results []Result
	for _, st := range stages {
		r, err := measure(st.name, st.fn, opts)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func measure(name string, fn stageFunc, opts Options) (Result, error) {
	for i := 0; i < opts.Warmup; i++ {
		if _, _, err := fn(); err != nil {
			return Result{}, err
		}
	}

	iterations := max(opts.Iterations, 1)
	latencies := make([]time.Duration, iterations)
	var values []float64
	var fields int

	for i := 0; i < iterations; i++ {
		start := time.Now()
		n, free, err := fn()
		latencies[i] = time.Since(start)
		if err != nil {
			return Result{}, err
		}
		fields = n
		if name != StageRead {
			values = append(values, float64(free))
		}
	}

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	return Result{
		Stage:       name,
		Latencies:   latencies,
		P50:         percentile(latencies, 0.50),
		P95:         percentile(latencies, 0.95),
		P99:         percentile(latencies, 0.99),
		Fields:      fields,
		ValueStdDev: stddev(values),
	}, nil
}

func readAll(src meminfo.Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func memFree(pass meminfo.Pass) int64 {
	s, _ := pass.Base(meminfo.MemFree)
	return s.Value
}

// MinInterval returns the p99 latency of a full pass, the shortest interval at
// which the sampler can keep up without skipping ticks.
func MinInterval(results []Result) time.Duration {
	for _, r := range results {
		if r.Stage == StagePass {
			return r.P99
		}
	}
	return 0
}

// MeasureOverhead returns the tool's memory overhead.
func MeasureOverhead() Overhead {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Overhead{
		AllocBytes: m.TotalAlloc,
		AllocCount: m.Mallocs,
		GCPauses:   m.NumGC,
	}
}

// RenderResults outputs styled benchmark results and compares the full pass
// latency against the configured interval.
func RenderResults(w io.Writer, results []Result, overhead Overhead, interval time.Duration) {
	fmt.Fprintln(w, bmTitle.Render("Pass Benchmark Results"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 70)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		bmHeader.Render("STAGE     "),
		bmHeader.Render("P50        "),
		bmHeader.Render("P95        "),
		bmHeader.Render("P99        "),
		bmHeader.Render("FIELDS"))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 70)))

	for _, r := range results {
		fmt.Fprintf(w, "  %-12s %-12v %-12v %-12v %d\n",
			r.Stage, r.P50, r.P95, r.P99, r.Fields)
	}

	if minIv := MinInterval(results); minIv > 0 && interval > 0 {
		fmt.Fprintln(w)
		load := float64(minIv) / float64(interval) * 100
		msg := fmt.Sprintf("p99 pass takes %.1f%% of the %v interval", load, interval)
		if minIv >= interval {
			fmt.Fprintf(w, "  %s\n", bmWarn.Render(msg+": ticks will be skipped"))
		} else {
			fmt.Fprintf(w, "  %s\n", bmOK.Render(msg))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Tool Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", lipgloss.NewStyle().Bold(true).Render(meminfo.FormatSize(int64(overhead.AllocBytes))))
	fmt.Fprintf(w, "  Allocations:      %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.AllocCount)))
	fmt.Fprintf(w, "  GC pauses:        %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.GCPauses)))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	n := float64(len(values))
	mean := sum / n
	variance := (sumSq / n) - (mean * mean)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
