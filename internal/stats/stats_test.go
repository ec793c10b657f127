package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	mean := Mean(values)
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), StdDev(values, mean), 1e-12)

	assert.Zero(t, Mean(nil))
	assert.Zero(t, StdDev([]float64{3}, 3))
	assert.InDelta(t, 2.0, Mean([]float64{1, 3, math.NaN(), math.Inf(1)}), 1e-12)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		q    float64
		want float64
	}{
		{"min", 0, 1},
		{"q1", 0.25, 2},
		{"median", 0.5, 3},
		{"interpolated", 0.6, 3.4},
		{"max", 1, 5},
		{"above range", 2, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(sorted, tt.q), 1e-12)
		})
	}

	assert.Zero(t, Quantile(nil, 0.5))
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{5, 1, 3})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Median)
	assert.InDelta(t, 2.0, s.Q1, 1e-12)
	assert.InDelta(t, 4.0, s.Q3, 1e-12)
	assert.InDelta(t, 2.0, s.StdDev, 1e-12)

	assert.Equal(t, Summary{}, Describe(nil))
}
