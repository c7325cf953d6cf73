package meminfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMeminfo = `MemTotal:       16384000 kB
MemFree:         8192000 kB
MemAvailable:   12000000 kB
Buffers:          100000 kB
Cached:          2000000 kB
SwapCached:            0 kB
Active(anon):     524288 kB
SwapTotal:             0 kB
SwapFree:              0 kB
Malformed_no_colon_value
HugePages_Total:       0
HugePages_Free:        0
Hugepagesize:       2048 kB
`

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want RawField
		ok   bool
	}{
		{"MemTotal:       16384000 kB", RawField{Name: "MemTotal", Raw: 16384000, Suffix: "kB"}, true},
		{"MemTotal:16384000kB", RawField{Name: "MemTotal", Raw: 16384000, Suffix: "kB"}, true},
		{"Foo:   42 B", RawField{Name: "Foo", Raw: 42, Suffix: "B"}, true},
		{"Foo:   42 mb", RawField{Name: "Foo", Raw: 42, Suffix: "mb"}, true},
		{"HugePages_Total:       7", RawField{Name: "HugePages_Total", Raw: 7}, true},
		{"Active(anon):     524288 kB", RawField{Name: "Active(anon)", Raw: 524288, Suffix: "kB"}, true},
		{"Pages:   12 pages", RawField{Name: "Pages", Raw: 12}, true},
		{"Weird:   12 kB (approx)", RawField{Name: "Weird", Raw: 12, Suffix: "kB"}, true},
		{"Malformed_no_colon_value", RawField{}, false},
		{"NoValue:   kB", RawField{}, false},
		{"Negative:   -5 kB", RawField{}, false},
		{"Glued:   12abc", RawField{}, false},
		{"Huge:   99999999999999999999 kB", RawField{}, false},
		{"", RawField{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_ReportAndInternalPredicates(t *testing.T) {
	report := MustCompilePattern("MemTotal|Hugepagesize|HugePages_.*")

	pass, err := Parse(strings.NewReader(sampleMeminfo), report, Mandatory)
	require.NoError(t, err)

	var names []string
	for _, s := range pass.Reported {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"MemTotal", "HugePages_Total", "HugePages_Free", "Hugepagesize"}, names)

	// MemFree is used internally but not reported.
	free, ok := pass.Base(MemFree)
	require.True(t, ok)
	assert.Equal(t, int64(8192000*1024), free.Value)
	assert.Equal(t, UnitBytes, free.Unit)

	// Hugepagesize is reported but not a base counter.
	_, ok = pass.Base("Hugepagesize")
	assert.False(t, ok)

	assert.Equal(t, MandatoryFields(), pass.BaseNames())
}

func TestParse_KeyIsCaseSensitive(t *testing.T) {
	pass, err := Parse(strings.NewReader("memtotal: 1 kB\nMemTotal: 2 kB\n"), NewNames("MemTotal"), nil)
	require.NoError(t, err)
	require.Len(t, pass.Reported, 1)
	assert.Equal(t, int64(2048), pass.Reported[0].Value)
}

func TestParse_MalformedLineDoesNotAbort(t *testing.T) {
	blob := "Malformed_no_colon_value\nMemFree: 10 kB\n"
	pass, err := Parse(strings.NewReader(blob), MustCompilePattern(), nil)
	require.NoError(t, err)
	require.Len(t, pass.Reported, 1)
	assert.Equal(t, "MemFree", pass.Reported[0].Name)
}

func TestParse_NilMatchers(t *testing.T) {
	pass, err := Parse(strings.NewReader(sampleMeminfo), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, pass.Reported)
	assert.Empty(t, pass.BaseNames())
}

func TestRead_Static(t *testing.T) {
	src := NewStatic("MemTotal: 1 kB\n")
	pass, err := Read(src, MustCompilePattern(), Mandatory)
	require.NoError(t, err)
	require.Len(t, pass.Reported, 1)

	src.Set("MemTotal: 3 kB\n")
	pass, err = Read(src, MustCompilePattern(), Mandatory)
	require.NoError(t, err)
	assert.Equal(t, int64(3072), pass.Reported[0].Value)
}

func TestCompilePattern(t *testing.T) {
	all := MustCompilePattern()
	assert.True(t, all.Match("Anything_at_all"))

	p := MustCompilePattern("Mem.*", "SwapUsed")
	assert.True(t, p.Match("MemUsed"))
	assert.True(t, p.Match("SwapUsed"))
	assert.False(t, p.Match("SwapFree"))
	assert.False(t, p.Match("XMemFree"), "pattern must match the whole name")
	assert.Equal(t, "Mem.*|SwapUsed", p.String())

	_, err := CompilePattern("Mem(")
	assert.Error(t, err)
}

func TestAny(t *testing.T) {
	m := Any(NewNames("A"), MustCompilePattern("B.*"), nil)
	assert.True(t, m.Match("A"))
	assert.True(t, m.Match("Bee"))
	assert.False(t, m.Match("C"))
	assert.False(t, Nothing.Match("A"))
}
