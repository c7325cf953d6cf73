package baseline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `MemTotal:       16384000 kB
MemFree:         8192000 kB
Buffers:          100000 kB
Cached:          2000000 kB
SwapCached:            0 kB
SwapTotal:       4096000 kB
SwapFree:        4096000 kB
HugePages_Total:       4
`

func TestSnapshot(t *testing.T) {
	got, err := Snapshot(meminfo.NewStatic(fixture), "Mem.*", "Huge.*")
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"MemTotal", "MemFree", "HugePages_Total", "MemUsed"}, names)
	assert.Equal(t, meminfo.UnitCount, got[2].Unit)

	_, err = Snapshot(meminfo.NewStatic(fixture), "Mem(")
	assert.Error(t, err)
}

func TestSaveLoadList(t *testing.T) {
	dir := t.TempDir()

	names, err := List(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	metrics, err := Snapshot(meminfo.NewStatic(fixture))
	require.NoError(t, err)
	b := NewBaseline("idle", metrics)
	require.NoError(t, b.Save(dir))

	loaded, err := Load("idle", dir)
	require.NoError(t, err)
	assert.Equal(t, b.Metrics, loaded.Metrics)
	assert.Equal(t, b.Hostname, loaded.Hostname)
	assert.True(t, b.Timestamp.Equal(loaded.Timestamp))

	names, err = List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"idle"}, names)

	_, err = Load("missing", dir)
	assert.Error(t, err)
	assert.Error(t, NewBaseline("../escape", nil).Save(dir))
}

func TestCompare(t *testing.T) {
	base := NewBaseline("b", []meminfo.Sample{
		{Name: "MemFree", Value: 1000, Unit: meminfo.UnitBytes},
		{Name: "MemUsed", Value: 1000, Unit: meminfo.UnitBytes},
		{Name: "Dirty", Value: 0, Unit: meminfo.UnitBytes},
		{Name: "Gone", Value: 5, Unit: meminfo.UnitCount},
	})
	current := []meminfo.Sample{
		{Name: "MemFree", Value: 500, Unit: meminfo.UnitBytes},
		{Name: "MemUsed", Value: 1100, Unit: meminfo.UnitBytes},
		{Name: "Dirty", Value: 7, Unit: meminfo.UnitBytes},
		{Name: "New", Value: 1, Unit: meminfo.UnitCount},
	}

	got := Compare(base, current)
	require.Len(t, got, 3)

	assert.Equal(t, "MemFree", got[0].Metric)
	assert.InDelta(t, -50.0, got[0].DeltaPct, 1e-9)
	assert.Equal(t, SeverityMajor, got[0].Severity)

	assert.InDelta(t, 10.0, got[1].DeltaPct, 1e-9)
	assert.Equal(t, SeverityMinor, got[1].Severity)

	assert.Equal(t, 100.0, got[2].DeltaPct)
	assert.Equal(t, SeverityGrowth, got[2].Severity)

	assert.Equal(t, 2, Significant(got))

	var buf bytes.Buffer
	RenderComparison(&buf, base, got)
	out := buf.String()
	assert.Contains(t, out, "MemFree")
	assert.Contains(t, out, "-50.0%")
	assert.True(t, strings.Contains(out, "2 metrics drifted significantly."))
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		delta float64
		want  Severity
	}{
		{0, SeverityNone},
		{-4.9, SeverityNone},
		{10, SeverityMinor},
		{-20, SeverityModerate},
		{45, SeverityGrowth},
		{-45, SeverityMajor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifySeverity(tt.delta), "%v", tt.delta)
	}
}
