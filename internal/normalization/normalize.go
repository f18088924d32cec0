// Package normalization rescales heterogeneous raw metrics (TVL,
// volatility, returns) onto comparable [0,1] ranges so the scorer can
// weight them against each other.
package normalization

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMetric is returned for out-of-domain numeric input:
// negative where a non-negative metric is required, or non-finite.
var ErrInvalidMetric = errors.New("invalid metric value")

// MetricRange is the value range observed across both ecosystems for
// one metric.
type MetricRange struct {
	Min float64
	Max float64
}

// Normalize rescales value onto [0,1] using min-max over the observed
// range. A zero range (both ecosystems identical) maps to 0.5.
// nonNegative marks metrics like TVL that must not be below zero.
func Normalize(value float64, r MetricRange, nonNegative bool) (float64, error) {
	if err := validate(value, nonNegative); err != nil {
		return 0, err
	}
	if err := validate(r.Min, nonNegative); err != nil {
		return 0, fmt.Errorf("range min: %w", err)
	}
	if err := validate(r.Max, nonNegative); err != nil {
		return 0, fmt.Errorf("range max: %w", err)
	}

	span := r.Max - r.Min
	if span == 0 {
		return 0.5, nil
	}

	n := (value - r.Min) / span
	// Clamp values that fall outside the observed range.
	if n < 0 {
		return 0, nil
	}
	if n > 1 {
		return 1, nil
	}
	return n, nil
}

// NormalizePair rescales two values of the same metric against the
// range they span together. Identical values both map to 0.5.
func NormalizePair(a, b float64, nonNegative bool) (na, nb float64, err error) {
	r := MetricRange{Min: math.Min(a, b), Max: math.Max(a, b)}

	na, err = Normalize(a, r, nonNegative)
	if err != nil {
		return 0, 0, err
	}
	nb, err = Normalize(b, r, nonNegative)
	if err != nil {
		return 0, 0, err
	}
	return na, nb, nil
}

// validate rejects non-finite input and, when required, negatives.
func validate(v float64, nonNegative bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: non-finite %v", ErrInvalidMetric, v)
	}
	if nonNegative && v < 0 {
		return fmt.Errorf("%w: negative %v for non-negative metric", ErrInvalidMetric, v)
	}
	return nil
}
