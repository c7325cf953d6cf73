// Package crosscheck compares meminfo counters against independent kernel
// sources and checks them against physical constraints.
package crosscheck

import (
	"math"
	"sort"
)

// ValidationStatus indicates the confidence level of a cross-checked metric.
type ValidationStatus string

const (
	StatusValid    ValidationStatus = "valid"
	StatusSuspect  ValidationStatus = "suspect"
	StatusConflict ValidationStatus = "conflict"
)

// Source represents a single metric reading from a specific source.
type Source struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ValidationResult holds the cross-check outcome for a metric.
type ValidationResult struct {
	Metric       string           `json:"metric"`
	Sources      []Source         `json:"sources"`
	Consensus    float64          `json:"consensus"`
	MaxDeviation float64          `json:"max_deviation_pct"`
	Status       ValidationStatus `json:"status"`
}

// Validator cross-checks metrics from multiple sources.
type Validator struct {
	SuspectThreshold  float64 // deviation % to mark suspect (default 1%)
	ConflictThreshold float64 // deviation % to mark conflict (default 10%)

	// Granularity is the absolute difference below which two readings agree.
	// meminfo reports kB, so byte values from a finer source differ by rounding.
	Granularity float64
}

// NewValidator creates a validator with default thresholds. Free-memory
// counters move between two reads, so small deviations are expected.
func NewValidator() *Validator {
	return &Validator{
		SuspectThreshold:  1.0,
		ConflictThreshold: 10.0,
	}
}

// CrossCheck compares readings of one metric. The consensus is the median and
// the deviation is the largest distance from it, as a percentage.
func (v *Validator) CrossCheck(metric string, sources []Source) ValidationResult {
	result := ValidationResult{
		Metric:  metric,
		Sources: sources,
		Status:  StatusValid,
	}
	if len(sources) == 0 {
		return result
	}

	values := make([]float64, len(sources))
	for i, s := range sources {
		values[i] = s.Value
	}
	result.Consensus = median(values)
	result.MaxDeviation = v.maxDeviation(values, result.Consensus)

	switch {
	case result.MaxDeviation >= v.ConflictThreshold:
		result.Status = StatusConflict
	case result.MaxDeviation >= v.SuspectThreshold:
		result.Status = StatusSuspect
	}
	return result
}

func (v *Validator) maxDeviation(values []float64, consensus float64) float64 {
	var worst float64
	for _, val := range values {
		diff := math.Abs(val - consensus)
		if diff <= v.Granularity {
			continue
		}
		if consensus == 0 {
			return 100.0
		}
		worst = math.Max(worst, diff/consensus*100)
	}
	return worst
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
