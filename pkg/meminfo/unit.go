package meminfo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Unit classifies a normalized counter value.
type Unit int

const (
	// UnitCount marks an unsuffixed field such as a page count.
	UnitCount Unit = iota
	// UnitBytes marks a field normalized to bytes.
	UnitBytes
)

// String returns the unit label reported to hosts: "B" for bytes, empty for counts.
func (u Unit) String() string {
	if u == UnitBytes {
		return "B"
	}
	return ""
}

// MarshalText renders the unit as "bytes" or "count".
func (u Unit) MarshalText() ([]byte, error) {
	if u == UnitBytes {
		return []byte("bytes"), nil
	}
	return []byte("count"), nil
}

// UnmarshalText accepts "bytes", "B", "count" or the empty string.
func (u *Unit) UnmarshalText(text []byte) error {
	switch string(text) {
	case "bytes", "B":
		*u = UnitBytes
	case "count", "":
		*u = UnitCount
	default:
		return fmt.Errorf("unknown unit %q", text)
	}
	return nil
}

// ErrOverflow is returned when a scaled value does not fit in an int64.
var ErrOverflow = errors.New("value overflows int64")

// ErrUnknownSuffix is returned for a suffix that is not a byte unit.
var ErrUnknownSuffix = errors.New("unknown unit suffix")

// Normalize converts a raw field value and its unit suffix into a canonical integer.
// Suffixes kB, MB, GB and TB scale by 1024^1..4, B is taken as bytes and an empty
// suffix leaves the value as a count.
func Normalize(raw int64, suffix string) (int64, Unit, error) {
	if suffix == "" {
		return raw, UnitCount, nil
	}

	power, err := suffixPower(suffix)
	if err != nil {
		return 0, UnitCount, err
	}

	shift := uint(10 * power)
	if raw > math.MaxInt64>>shift || raw < math.MinInt64>>shift {
		return 0, UnitBytes, fmt.Errorf("%d%s: %w", raw, suffix, ErrOverflow)
	}
	return raw << shift, UnitBytes, nil
}

func suffixPower(suffix string) (int, error) {
	switch len(suffix) {
	case 1:
		if suffix == "b" || suffix == "B" {
			return 0, nil
		}
	case 2:
		if suffix[1] != 'b' && suffix[1] != 'B' {
			break
		}
		switch strings.ToLower(suffix[:1]) {
		case "k":
			return 1, nil
		case "m":
			return 2, nil
		case "g":
			return 3, nil
		case "t":
			return 4, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", suffix, ErrUnknownSuffix)
}

var sizeUnits = []string{"B", "kB", "MB", "GB"}

// FormatSize renders a byte count with two decimals, moving to the next unit once
// the value reaches 800 of the current one.
func FormatSize(size int64) string {
	res := float64(size)
	for _, u := range sizeUnits {
		if math.Abs(res) < 800 {
			return fmt.Sprintf("%.2f %s", res, u)
		}
		res /= 1024
	}
	return fmt.Sprintf("%.2f TB", res)
}
