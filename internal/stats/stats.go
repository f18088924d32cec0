// Package stats provides the numeric helpers shared by the cleaning,
// aggregation and comparison stages.
package stats

import (
	"math"
	"sort"
)

// Mean calculates the arithmetic mean. Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleStddev calculates sample standard deviation (n-1 denominator).
// Returns 0 when fewer than 2 samples are available.
func SampleStddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Percentile computes the p-th percentile (p in [0,1]) of values using
// linear interpolation. The input does not need to be sorted.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return values[0]
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// MaxDrawdownPct calculates the worst peak-to-trough decline of a price
// path, as a percentage of the running peak. Prices must be in
// chronological order. Returns 0 for flat or empty input.
func MaxDrawdownPct(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}

	peak := prices[0]
	maxDrawdown := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			drawdown := (peak - p) / peak * 100
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown
}

// Correlation computes the Pearson correlation of two equal-length
// samples. Returns 0 when either sample has no variance or the lengths
// differ.
func Correlation(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}

	meanA := Mean(a)
	meanB := Mean(b)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
