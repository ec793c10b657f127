// Package stats provides the descriptive statistics shared by quality scoring, anomaly
// detection and dataset summaries.
package stats

import (
	"math"
	"sort"
)

// Mean computes the arithmetic mean, ignoring NaN and infinite values.
func Mean(values []float64) float64 {
	sum := 0.0
	valid := 0
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			sum += v
			valid++
		}
	}
	if valid == 0 {
		return 0
	}
	return sum / float64(valid)
}

// StdDev computes the sample standard deviation (n-1 denominator) around mean.
func StdDev(values []float64, mean float64) float64 {
	sumSquaredDiff := 0.0
	valid := 0
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			diff := v - mean
			sumSquaredDiff += diff * diff
			valid++
		}
	}
	if valid <= 1 {
		return 0
	}
	return math.Sqrt(sumSquaredDiff / float64(valid-1))
}

// Sorted returns a sorted copy of values.
func Sorted(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted
}

// Quantile returns the q-quantile (0..1) of an already sorted slice using linear interpolation
// between the closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	index := q * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Summary is a describe-style summary of a numeric column.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Describe summarises values. An empty input yields a zero Summary.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := Sorted(values)
	mean := Mean(sorted)
	return Summary{
		Count:  len(sorted),
		Mean:   mean,
		StdDev: StdDev(sorted, mean),
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
}
