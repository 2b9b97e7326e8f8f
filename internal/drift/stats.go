package drift

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

const histogramEpsilon = 1e-10

// ksTest computes the two-sample Kolmogorov-Smirnov statistic and its
// asymptotic p-value.
func ksTest(a, b []float64) (statistic, pValue float64) {
	x := make([]float64, len(a))
	y := make([]float64, len(b))
	copy(x, a)
	copy(y, b)
	sort.Float64s(x)
	sort.Float64s(y)

	n1 := float64(len(x))
	n2 := float64(len(y))

	var i, j int
	var d float64
	for i < len(x) && j < len(y) {
		v1 := x[i]
		v2 := y[j]
		if v1 <= v2 {
			i++
		}
		if v2 <= v1 {
			j++
		}
		diff := math.Abs(float64(i)/n1 - float64(j)/n2)
		if diff > d {
			d = diff
		}
	}

	return d, ksPValue(d, n1, n2)
}

// ksPValue approximates P(D > d) with the asymptotic Kolmogorov series.
func ksPValue(d, n1, n2 float64) float64 {
	if d <= 0 {
		return 1
	}

	nEff := math.Sqrt(n1 * n2 / (n1 + n2))
	lambda := (nEff + 0.12 + 0.11/nEff) * d

	var sum float64
	for j := 1; j <= 100; j++ {
		term := 2 * math.Exp(-2*float64(j*j)*lambda*lambda)
		if j%2 == 0 {
			sum -= term
		} else {
			sum += term
		}
		if term < 1e-12 {
			break
		}
	}

	return math.Min(math.Max(sum, 0), 1)
}

// jsDivergence computes the Jensen-Shannon divergence between two samples
// using histograms with a shared range.
func jsDivergence(a, b []float64, bins int) float64 {
	lo := math.Min(floats.Min(a), floats.Min(b))
	hi := math.Max(floats.Max(a), floats.Max(b))
	if lo == hi {
		return 0
	}

	p := histogram(a, lo, hi, bins)
	q := histogram(b, lo, hi, bins)

	var js float64
	for i := 0; i < bins; i++ {
		pi := p[i] + histogramEpsilon
		qi := q[i] + histogramEpsilon
		mi := (pi + qi) / 2
		js += 0.5*pi*math.Log(pi/mi) + 0.5*qi*math.Log(qi/mi)
	}

	if js < 0 {
		js = 0
	}
	return js
}

// histogram bins values over [lo, hi] and normalizes counts to a probability
// mass. Values at hi land in the last bin.
func histogram(values []float64, lo, hi float64, bins int) []float64 {
	counts := make([]float64, bins)
	width := (hi - lo) / float64(bins)

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	total := float64(len(values))
	if total > 0 {
		floats.Scale(1/total, counts)
	}
	return counts
}
