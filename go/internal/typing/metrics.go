// Package typing implements the typing-session metrics engine: it consumes
// accepted keystrokes against a reference text and produces live WPM,
// accuracy and consistency statistics plus a completion signal.
package typing

import "math"

// ConsistencyScore derives a 0..100 stability score from the per-second WPM
// samples: 100 - stddev/mean*100, clamped. Fewer than two samples yields the
// default of zero; no estimate is fabricated.
func ConsistencyScore(samples []Sample) int {
	if len(samples) < 2 {
		return 0
	}
	values := make([]float64, len(samples))
	for i, sample := range samples {
		values[i] = float64(sample.WPM)
	}
	mean := meanOf(values)
	if mean <= 0 {
		return 0
	}
	score := int(math.Round(100 - stddevOf(values, mean)/mean*100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddevOf(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func roundRatio(numerator, denominator, scale float64) int {
	return int(math.Round(numerator / denominator * scale))
}
