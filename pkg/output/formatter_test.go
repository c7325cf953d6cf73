package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/danpilch/memsample/pkg/engine"
	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalog = []engine.Descriptor{
	{Name: "MemTotal", ID: 0, Unit: meminfo.UnitBytes},
	{Name: "HugePages_Total", ID: 1, Unit: meminfo.UnitCount},
}

func points(values ...int64) []engine.Point {
	t0 := time.Unix(100, 0)
	out := make([]engine.Point, len(values))
	for i, v := range values {
		out[i] = engine.Point{Time: t0.Add(time.Duration(i) * 10 * time.Millisecond), Value: v}
	}
	return out
}

func TestRenderCatalog_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable, &buf).RenderCatalog(catalog))

	out := buf.String()
	assert.Contains(t, out, "MemTotal")
	assert.Contains(t, out, "HugePages_Total")
	assert.Contains(t, out, "2 metrics")
}

func TestRenderCatalog_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTSV, &buf).RenderCatalog(catalog))

	assert.Equal(t, "ID\tNAME\tUNIT\n0\tMemTotal\tB\n1\tHugePages_Total\t\n", buf.String())
}

func TestRenderCatalog_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &buf).RenderCatalog(nil))

	var got struct {
		Metrics []engine.Descriptor `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.NotNil(t, got.Metrics)
	assert.Empty(t, got.Metrics)
	assert.Contains(t, buf.String(), `"metrics": []`)
}

func TestRenderSeries_TSV(t *testing.T) {
	var buf bytes.Buffer
	series := []Series{
		{Metric: catalog[0], Points: points(30, 10, 20)},
		{Metric: catalog[1]},
	}
	require.NoError(t, NewFormatter(FormatTSV, &buf).RenderSeries(series))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0\tMemTotal\tB\t3\t10\t30\t20", lines[1])
	assert.Equal(t, "1\tHugePages_Total\t\t0\t0\t0\t0", lines[2])
}

func TestRenderSeries_Table(t *testing.T) {
	var buf bytes.Buffer
	series := []Series{
		{Metric: catalog[0], Points: points(1536*1024, 2048*1024)},
		{Metric: catalog[1]},
	}
	require.NoError(t, NewFormatter(FormatTable, &buf).RenderSeries(series))

	out := buf.String()
	assert.Contains(t, out, "1.50 MB")
	assert.Contains(t, out, "2.00 MB")
	assert.Contains(t, out, "HugePages_Total")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "512 B", FormatValue(512, meminfo.UnitBytes))
	assert.Equal(t, "512", FormatValue(512, meminfo.UnitCount))
}

func TestSummarize(t *testing.T) {
	sum := Summarize(Series{Metric: catalog[0], Points: points(5, -2, 9, 3)})
	assert.Equal(t, Summary{Name: "MemTotal", ID: 0, Unit: meminfo.UnitBytes, Samples: 4, Min: -2, Max: 9, Last: 3}, sum)
}

func TestTrend(t *testing.T) {
	assert.Empty(t, Trend(nil, 10))
	assert.Equal(t, "▁▁▁", Trend(points(7, 7, 7), 10))
	assert.Equal(t, "▁█", Trend(points(0, 100), 10))

	long := make([]int64, 100)
	for i := range long {
		long[i] = int64(i)
	}
	got := Trend(points(long...), 20)
	assert.Equal(t, 20, utf8.RuneCountInString(got))
	assert.True(t, strings.HasPrefix(got, "▁"))
	assert.True(t, strings.HasSuffix(got, "█"))
}

func TestDownsample(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, downsample([]float64{1, 2}, 5))
	assert.Equal(t, []float64{1.5, 3.5}, downsample([]float64{1, 2, 3, 4}, 2))
}
