//go:build linux

package crosscheck

import (
	"fmt"

	"github.com/danpilch/memsample/pkg/meminfo"
	"golang.org/x/sys/unix"
)

// SysinfoSource names readings taken from the sysinfo(2) syscall.
const SysinfoSource = "sysinfo"

// AlternativeSources returns byte counters for the mandatory meminfo fields
// that sysinfo(2) also reports, keyed by meminfo field name.
func AlternativeSources() (map[string]Source, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return nil, fmt.Errorf("sysinfo: %w", err)
	}

	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	bytes := func(v uint64) Source {
		return Source{Name: SysinfoSource, Value: float64(v * unit), Unit: meminfo.UnitBytes.String()}
	}

	return map[string]Source{
		meminfo.MemTotal:  bytes(uint64(info.Totalram)),
		meminfo.MemFree:   bytes(uint64(info.Freeram)),
		meminfo.Buffers:   bytes(uint64(info.Bufferram)),
		meminfo.SwapTotal: bytes(uint64(info.Totalswap)),
		meminfo.SwapFree:  bytes(uint64(info.Freeswap)),
	}, nil
}
