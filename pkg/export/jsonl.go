package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

func init() {
	Register(&JSONLFormat{})
}

// JSONLFormat writes one JSON object per row.
type JSONLFormat struct{}

func (f *JSONLFormat) Name() string         { return "jsonl" }
func (f *JSONLFormat) Extensions() []string { return []string{".jsonl", ".ndjson"} }

func (f *JSONLFormat) Write(w io.Writer, run Run) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, row := range run.Rows() {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
	}
	return bw.Flush()
}
