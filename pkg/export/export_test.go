package export

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danpilch/memsample/pkg/engine"
	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/danpilch/memsample/pkg/output"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRun() Run {
	t0 := time.Unix(1700000000, 0)
	return NewRun([]output.Series{
		{
			Metric: engine.Descriptor{Name: "MemUsed", ID: 0, Unit: meminfo.UnitBytes},
			Points: []engine.Point{
				{Time: t0, Value: 4096},
				{Time: t0.Add(10 * time.Millisecond), Value: 8192},
			},
		},
		{
			Metric: engine.Descriptor{Name: "HugePages_Total", ID: 1, Unit: meminfo.UnitCount},
			Points: []engine.Point{{Time: t0.Add(10 * time.Millisecond), Value: 4}},
		},
		{
			Metric: engine.Descriptor{Name: "SwapUsed", ID: 2, Unit: meminfo.UnitBytes},
		},
	})
}

func TestRun_Rows(t *testing.T) {
	run := testRun()
	rows := run.Rows()

	require.Len(t, rows, 3)
	id := run.ID.String()
	assert.Equal(t, Row{RunID: id, Metric: "MemUsed", ID: 0, Unit: "B", Timestamp: 1700000000000000000, Value: 4096}, rows[0])
	assert.Equal(t, Row{RunID: id, Metric: "HugePages_Total", ID: 1, Unit: "", Timestamp: 1700000000010000000, Value: 4}, rows[2])
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"html", "jsonl", "parquet"}, Names())

	f, ok := Get("PARQUET")
	require.True(t, ok)
	assert.Equal(t, "parquet", f.Name())

	f, ok = GetByPath("/tmp/run.ndjson")
	require.True(t, ok)
	assert.Equal(t, "jsonl", f.Name())

	_, ok = GetByPath("/tmp/run.csv")
	assert.False(t, ok)
}

func TestWriteFile_JSONL(t *testing.T) {
	run := testRun()
	path := filepath.Join(t.TempDir(), "run.jsonl")
	require.NoError(t, WriteFile(path, "", run))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []Row
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row Row
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		got = append(got, row)
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, run.Rows(), got)
}

func TestWriteFile_Parquet(t *testing.T) {
	run := testRun()
	path := filepath.Join(t.TempDir(), "run.out")
	require.NoError(t, WriteFile(path, "parquet", run))

	got, err := parquet.ReadFile[Row](path)
	require.NoError(t, err)
	assert.Equal(t, run.Rows(), got)
}

func TestWriteFile_HTML(t *testing.T) {
	run := testRun()
	path := filepath.Join(t.TempDir(), "run.html")
	require.NoError(t, WriteFile(path, "", run))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, run.ID.String())
	assert.Contains(t, html, "MemUsed (bytes)")
	assert.Contains(t, html, "HugePages_Total")
	assert.NotContains(t, html, "SwapUsed", "series without points are not charted")
}

func TestWriteFile_Unsupported(t *testing.T) {
	dir := t.TempDir()

	err := WriteFile(filepath.Join(dir, "run.csv"), "", testRun())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "jsonl"))

	_, statErr := os.Stat(filepath.Join(dir, "run.csv"))
	assert.True(t, os.IsNotExist(statErr), "nothing is created for an unknown format")
}
