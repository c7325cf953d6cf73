package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMetric is returned for a name or id that was never discovered.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrMissingMandatoryField is returned when discovery cannot observe a base counter.
	ErrMissingMandatoryField = errors.New("missing mandatory field")

	// ErrSourceUnavailable is reported once the source failed too many ticks in a row.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRunning is returned by Discover while the sampler is running.
	ErrRunning = errors.New("sampler is running")
)

// MissingFieldsError lists the base counters a discovery pass did not observe.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingMandatoryField, strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrMissingMandatoryField) hold.
func (e *MissingFieldsError) Is(target error) bool {
	return target == ErrMissingMandatoryField
}
