package debug

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/danpilch/memsample/pkg/meminfo"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// ReadTiming summarizes how long reads of a source took, from Open to Close.
type ReadTiming struct {
	Name   string
	Reads  int
	Errors int
	Total  time.Duration
	Max    time.Duration
}

// Mean returns the average read duration.
func (t ReadTiming) Mean() time.Duration {
	if t.Reads == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Reads)
}

// TimedSource wraps a meminfo.Source to record read durations.
type TimedSource struct {
	inner meminfo.Source
	name  string

	mu     sync.Mutex
	timing ReadTiming
}

// NewTimedSource wraps a source with timing instrumentation.
func NewTimedSource(name string, src meminfo.Source) *TimedSource {
	return &TimedSource{
		inner:  src,
		name:   name,
		timing: ReadTiming{Name: name},
	}
}

// Open opens the wrapped source. The read is timed until the reader is closed.
func (t *TimedSource) Open() (io.ReadCloser, error) {
	start := time.Now()
	rc, err := t.inner.Open()
	if err != nil {
		t.mu.Lock()
		t.timing.Errors++
		t.mu.Unlock()
		return nil, err
	}
	return &timedReader{ReadCloser: rc, start: start, src: t}, nil
}

// Timing returns the accumulated timing.
func (t *TimedSource) Timing() ReadTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timing
}

func (t *TimedSource) record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timing.Reads++
	t.timing.Total += d
	if d > t.timing.Max {
		t.timing.Max = d
	}
}

type timedReader struct {
	io.ReadCloser
	start  time.Time
	src    *TimedSource
	closed bool
}

func (r *timedReader) Close() error {
	err := r.ReadCloser.Close()
	if !r.closed {
		r.closed = true
		r.src.record(time.Since(r.start))
	}
	return err
}

// TimingReport prints a styled timing summary.
func TimingReport(w io.Writer, timings []ReadTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Source Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 60)))
	fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		debugHeader.Render("SOURCE             "),
		debugHeader.Render("READS   "),
		debugHeader.Render("MEAN        "),
		debugHeader.Render("MAX         "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 60)))

	var total time.Duration
	for _, t := range timings {
		fmt.Fprintf(w, "  %-20s %-9d %-13v %v\n", t.Name, t.Reads, t.Mean(), t.Max)
		if t.Errors > 0 {
			fmt.Fprintf(w, "  %s\n", debugDim.Render(fmt.Sprintf("%d failed opens", t.Errors)))
		}
		total += t.Total
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 60)))
	fmt.Fprintf(w, "  %-20s %v\n",
		lipgloss.NewStyle().Bold(true).Render("TOTAL"), total)
}
