// Package baseline saves a snapshot of memory counters and detects drift
// against it later.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danpilch/memsample/pkg/meminfo"
)

// Baseline represents a snapshot of memory counters.
type Baseline struct {
	Name      string            `json:"name"`
	Timestamp time.Time         `json:"timestamp"`
	Hostname  string            `json:"hostname"`
	Metrics   []meminfo.Sample  `json:"metrics"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DefaultDir returns the default baseline storage directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".memsample/baselines"
	}
	return filepath.Join(home, ".memsample", "baselines")
}

// Snapshot reads src once and returns the fields and derived metrics
// matching the patterns, in catalog order.
func Snapshot(src meminfo.Source, patterns ...string) ([]meminfo.Sample, error) {
	report, err := meminfo.CompilePattern(patterns...)
	if err != nil {
		return nil, err
	}
	pass, err := meminfo.Read(src, report, meminfo.Mandatory)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []meminfo.Sample
	for _, s := range append(pass.Reported, meminfo.Synthesize(pass, report)...) {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		out = append(out, s)
	}
	return out, nil
}

// Save writes a baseline to a JSON file.
func (b *Baseline) Save(dir string) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := validName(b.Name); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create baseline directory: %w", err)
	}

	path := filepath.Join(dir, b.Name+".json")
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal baseline: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("cannot write baseline: %w", err)
	}
	return nil
}

// Load reads a baseline from a JSON file.
func Load(name, dir string) (*Baseline, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read baseline %q: %w", name, err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("cannot parse baseline: %w", err)
	}
	return &b, nil
}

// List returns all saved baseline names.
func List(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return names, nil
}

// NewBaseline creates a new baseline from a snapshot.
func NewBaseline(name string, metrics []meminfo.Sample) *Baseline {
	hostname, _ := os.Hostname()
	return &Baseline{
		Name:      name,
		Timestamp: time.Now(),
		Hostname:  hostname,
		Metrics:   metrics,
	}
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid baseline name %q", name)
	}
	return nil
}
