//go:build !linux

package crosscheck

import "errors"

// SysinfoSource names readings taken from the sysinfo(2) syscall.
const SysinfoSource = "sysinfo"

// AlternativeSources is only implemented on Linux.
func AlternativeSources() (map[string]Source, error) {
	return nil, errors.ErrUnsupported
}
