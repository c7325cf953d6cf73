package output

import (
	"strings"

	"github.com/danpilch/memsample/pkg/engine"
)

// sparkline block characters from lowest to highest
var sparkBlocks = []rune{
	'\u2581', // ▁
	'\u2582', // ▂
	'\u2583', // ▃
	'\u2584', // ▄
	'\u2585', // ▅
	'\u2586', // ▆
	'\u2587', // ▇
	'\u2588', // █
}

// Trend renders a sparkline of at most width characters for a series. Longer
// series are averaged into width buckets.
func Trend(points []engine.Point, width int) string {
	if len(points) == 0 || width < 1 {
		return ""
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.Value)
	}
	return renderSparkline(downsample(values, width))
}

// downsample averages values into at most n buckets.
func downsample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}

	out := make([]float64, n)
	for i := range out {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

func renderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	rng := max - min
	for _, v := range values {
		idx := 0
		if rng > 0 {
			idx = int((v - min) / rng * float64(len(sparkBlocks)-1))
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		b.WriteRune(sparkBlocks[idx])
	}

	return b.String()
}
