// Package export writes recorded series to files in long format: one row per
// metric per tick that produced a value.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danpilch/memsample/pkg/output"
	"github.com/google/uuid"
)

// Row is one exported observation.
type Row struct {
	RunID     string `json:"run_id" parquet:"run_id"`
	Metric    string `json:"metric" parquet:"metric"`
	ID        int64  `json:"id" parquet:"id"`
	Unit      string `json:"unit" parquet:"unit"`
	Timestamp int64  `json:"timestamp" parquet:"timestamp"` // unix nanoseconds
	Value     int64  `json:"value" parquet:"value"`
}

// Run is a recording session ready for export.
type Run struct {
	ID     uuid.UUID
	Series []output.Series
}

// NewRun stamps series with a fresh run id.
func NewRun(series []output.Series) Run {
	return Run{ID: uuid.New(), Series: series}
}

// Rows flattens the run in catalog order, each series in time order.
func (r Run) Rows() []Row {
	var n int
	for _, s := range r.Series {
		n += len(s.Points)
	}

	rows := make([]Row, 0, n)
	runID := r.ID.String()
	for _, s := range r.Series {
		for _, p := range s.Points {
			rows = append(rows, Row{
				RunID:     runID,
				Metric:    s.Metric.Name,
				ID:        s.Metric.ID,
				Unit:      s.Metric.Unit.String(),
				Timestamp: p.Time.UnixNano(),
				Value:     p.Value,
			})
		}
	}
	return rows
}

// Format writes a run to a stream.
type Format interface {
	Name() string
	Extensions() []string
	Write(w io.Writer, run Run) error
}

var (
	registry    = make(map[string]Format)
	extRegistry = make(map[string]Format)
)

// Register adds a format to the registry.
func Register(f Format) {
	registry[strings.ToLower(f.Name())] = f
	for _, ext := range f.Extensions() {
		extRegistry[strings.ToLower(ext)] = f
	}
}

// Get returns a format by name.
func Get(name string) (Format, bool) {
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// GetByPath returns a format based on the file's extension.
func GetByPath(path string) (Format, bool) {
	f, ok := extRegistry[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Names lists the registered format names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFile exports run to path. An empty format is inferred from the extension.
func WriteFile(path, format string, run Run) (err error) {
	var (
		f  Format
		ok bool
	)
	if format != "" {
		f, ok = Get(format)
	} else {
		f, ok = GetByPath(path)
	}
	if !ok {
		return fmt.Errorf("unsupported export format %q for %s (supported: %s)",
			format, path, strings.Join(Names(), ", "))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.Write(file, run); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	return nil
}
