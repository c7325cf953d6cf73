package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetBatchSize is the number of rows handed to the writer per call.
const ParquetBatchSize = 1000

func init() {
	Register(&ParquetFormat{})
}

// ParquetFormat writes rows as a Snappy-compressed Parquet file.
type ParquetFormat struct{}

func (f *ParquetFormat) Name() string         { return "parquet" }
func (f *ParquetFormat) Extensions() []string { return []string{".parquet"} }

func (f *ParquetFormat) Write(w io.Writer, run Run) error {
	pw := parquet.NewGenericWriter[Row](w, parquet.Compression(&parquet.Snappy))

	rows := run.Rows()
	for start := 0; start < len(rows); start += ParquetBatchSize {
		end := min(start+ParquetBatchSize, len(rows))
		if _, err := pw.Write(rows[start:end]); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}

	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
