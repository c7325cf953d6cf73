package debug

import (
	"bytes"
	"errors"
	"io"
	"net/http"
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
Huge:   99999999999999999 TB
`

func TestCollectRawFields(t *testing.T) {
	fields, err := CollectRawFields(strings.NewReader(fixture), meminfo.MustCompilePattern("Huge.*", "MemUsed"))
	require.NoError(t, err)

	byName := make(map[string]RawField)
	for _, f := range fields {
		byName[f.Name] = f
	}
	require.Len(t, fields, 11, "nine lines plus two derived metrics")

	total := byName["MemTotal"]
	assert.Equal(t, int64(16384000), total.Raw)
	assert.Equal(t, "kB", total.Suffix)
	assert.Equal(t, int64(16384000*1024), total.Value)
	assert.True(t, total.Internal)
	assert.False(t, total.Reported)

	pages := byName["HugePages_Total"]
	assert.Equal(t, meminfo.UnitCount, pages.Unit)
	assert.True(t, pages.Reported)
	assert.False(t, pages.Internal)

	assert.ErrorIs(t, byName["Huge"].Err, meminfo.ErrOverflow)

	used := byName["MemUsed"]
	assert.True(t, used.Derived)
	assert.True(t, used.Reported)
	assert.False(t, byName["SwapUsed"].Reported)

	var buf bytes.Buffer
	DumpRawFields(&buf, fields)
	out := buf.String()
	assert.Contains(t, out, "16384000 kB")
	assert.Contains(t, out, "mandatory")
	assert.Contains(t, out, "reported")
	assert.Contains(t, out, "derived")
}

type closeCounter struct {
	io.Reader
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

type sourceFunc func() (io.ReadCloser, error)

func (f sourceFunc) Open() (io.ReadCloser, error) { return f() }

func TestTimedSource(t *testing.T) {
	ts := NewTimedSource("meminfo", meminfo.NewStatic(fixture))

	for i := 0; i < 3; i++ {
		pass, err := meminfo.Read(ts, nil, meminfo.Mandatory)
		require.NoError(t, err)
		_, ok := pass.Base(meminfo.MemTotal)
		assert.True(t, ok)
	}

	timing := ts.Timing()
	assert.Equal(t, "meminfo", timing.Name)
	assert.Equal(t, 3, timing.Reads)
	assert.Zero(t, timing.Errors)
	assert.GreaterOrEqual(t, timing.Total, timing.Max)
	assert.LessOrEqual(t, timing.Mean(), timing.Max)

	var buf bytes.Buffer
	TimingReport(&buf, []ReadTiming{timing})
	assert.Contains(t, buf.String(), "meminfo")
}

func TestTimedSource_CountsOncePerRead(t *testing.T) {
	cc := &closeCounter{Reader: strings.NewReader(fixture)}
	ts := NewTimedSource("fn", sourceFunc(func() (io.ReadCloser, error) { return cc, nil }))

	rc, err := ts.Open()
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.NoError(t, rc.Close())

	assert.Equal(t, 2, cc.closes)
	assert.Equal(t, 1, ts.Timing().Reads)
}

func TestTimedSource_Errors(t *testing.T) {
	src := meminfo.NewStatic(fixture)
	src.Fail(errors.New("gone"))
	ts := NewTimedSource("broken", src)

	_, err := ts.Open()
	assert.Error(t, err)
	assert.Equal(t, ReadTiming{Name: "broken", Errors: 1}, ts.Timing())
	assert.Zero(t, ReadTiming{}.Mean())
}

func TestStartPprofServer(t *testing.T) {
	srv, err := StartPprofServer("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer srv.Stop()

	resp, err := http.Get("http://" + srv.Addr() + "/debug/pprof/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartPprofServer_AddressInUse(t *testing.T) {
	srv, err := StartPprofServer("127.0.0.1:0", nil)
	require.NoError(t, err)
	defer srv.Stop()

	_, err = StartPprofServer(srv.Addr(), nil)
	assert.Error(t, err)
}
