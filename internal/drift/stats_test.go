package drift

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func normalSample(rng *rand.Rand, n int, mean, std float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = rng.NormFloat64()*std + mean
	}
	return values
}

func TestKSTest(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	tests := []struct {
		name      string
		a         []float64
		b         []float64
		wantLowD  bool
		wantLowP  bool
	}{
		{
			name:     "identical samples",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{1, 2, 3, 4, 5},
			wantLowD: true,
		},
		{
			name:     "same distribution",
			a:        normalSample(rng, 500, 0, 1),
			b:        normalSample(rng, 500, 0, 1),
			wantLowD: true,
		},
		{
			name:     "shifted distribution",
			a:        normalSample(rng, 500, 0, 1),
			b:        normalSample(rng, 500, 3, 1),
			wantLowP: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, p := ksTest(tt.a, tt.b)

			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, 1.0)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)

			if tt.wantLowD {
				assert.Less(t, d, 0.15)
			}
			if tt.wantLowP {
				assert.Greater(t, d, 0.5)
				assert.Less(t, p, 0.01)
			}
		})
	}
}

func TestKSPValue_ZeroStatistic(t *testing.T) {
	assert.Equal(t, 1.0, ksPValue(0, 100, 100))
}

func TestJSDivergence(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	tests := []struct {
		name     string
		a        []float64
		b        []float64
		bins     int
		wantHigh bool
	}{
		{
			name: "identical samples score near zero",
			a:    normalSample(rng, 1000, 0, 1),
			bins: 50,
		},
		{
			name:     "disjoint samples score high",
			a:        normalSample(rng, 1000, 0, 0.5),
			b:        normalSample(rng, 1000, 10, 0.5),
			bins:     50,
			wantHigh: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.b
			if b == nil {
				b = tt.a
			}

			js := jsDivergence(tt.a, b, tt.bins)

			assert.GreaterOrEqual(t, js, 0.0)
			if tt.wantHigh {
				assert.Greater(t, js, 0.3)
			} else {
				assert.Less(t, js, 0.01)
			}
		})
	}
}

func TestJSDivergence_ConstantValues(t *testing.T) {
	a := []float64{5, 5, 5, 5}
	b := []float64{5, 5, 5}

	assert.Equal(t, 0.0, jsDivergence(a, b, 50))
}

func TestHistogram(t *testing.T) {
	values := []float64{0, 0.5, 1, 1.5, 2}

	h := histogram(values, 0, 2, 4)

	assert.Len(t, h, 4)
	assert.InDelta(t, 1.0, sum(h), 1e-9)
	// The hi value must land inside the range, not be dropped.
	assert.Greater(t, h[3], 0.0)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func TestIsolationForest_ScoresOutliersHigher(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := normalSample(rng, 500, 0, 1)

	forest := newIsolationForest(100, 256)
	forest.Fit(data)

	inlierScore := forest.Score(0)
	outlierScore := forest.Score(12)

	assert.Greater(t, outlierScore, inlierScore)
	assert.False(t, forest.IsAnomaly(0))
	assert.True(t, forest.IsAnomaly(12))
}

func TestAveragePathLength(t *testing.T) {
	assert.Equal(t, 0.0, averagePathLength(1))
	assert.InDelta(t, 0.1544, averagePathLength(2), 1e-3)
	assert.Greater(t, averagePathLength(256), averagePathLength(16))
}

func TestDescribe(t *testing.T) {
	stats := describe([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})

	assert.InDelta(t, 5.5, stats.Mean, 1e-9)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 10.0, stats.Max)
	assert.True(t, stats.P25 <= stats.P50)
	assert.True(t, stats.P50 <= stats.P75)
	assert.True(t, stats.P75 <= stats.P95)
	assert.False(t, math.IsNaN(stats.StdDev))
}
