// Package config holds the scoring configuration: the dimension weight
// table, recommendation thresholds and confidence cutoffs. Weights are
// validated at load time so a broken table never reaches the scorer.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingDimension is returned when the weight table does not sum
// to 1.0 within tolerance, or a dimension entry is unusable.
var ErrMissingDimension = errors.New("scoring weights must sum to 1.0")

// Dimension is one scored comparison dimension and its weight.
type Dimension struct {
	Name string `yaml:"name"`
	// Weight is the share of the composite score, 0..1.
	Weight float64 `yaml:"weight"`
	// LowerIsBetter inverts the normalized value before weighting,
	// for dimensions like volatility and drawdown.
	LowerIsBetter bool `yaml:"lower_is_better"`
}

// ScoringConfig is the full scoring parameter set.
type ScoringConfig struct {
	Dimensions []Dimension `yaml:"dimensions"`

	// Epsilon floors the denominator of relative differences.
	Epsilon float64 `yaml:"epsilon"`

	// Tolerance for the weight-sum invariant.
	WeightSumTolerance float64 `yaml:"weight_sum_tolerance"`

	// Recommendation thresholds on the absolute score difference.
	// |d| < HoldThreshold            -> Hold
	// HoldThreshold <= |d| < Strong  -> Moderate Buy
	// |d| >= StrongThreshold         -> Strong Buy
	HoldThreshold   float64 `yaml:"hold_threshold"`
	StrongThreshold float64 `yaml:"strong_threshold"`

	// Confidence cutoffs on the usable dimension ratio.
	// ratio < LowCutoff   -> Low
	// ratio <= HighCutoff -> Medium
	// ratio > HighCutoff  -> High
	LowCutoff  float64 `yaml:"low_cutoff"`
	HighCutoff float64 `yaml:"high_cutoff"`
}

// Default returns the shipped scoring configuration.
func Default() *ScoringConfig {
	return &ScoringConfig{
		Dimensions: []Dimension{
			{Name: "return_90d", Weight: 0.20},
			{Name: "return_30d", Weight: 0.10},
			{Name: "volatility_30d", Weight: 0.10, LowerIsBetter: true},
			{Name: "max_drawdown", Weight: 0.05, LowerIsBetter: true},
			{Name: "sharpe_90d", Weight: 0.10},
			{Name: "tvl_efficiency", Weight: 0.15},
			{Name: "fundamentals", Weight: 0.20},
			{Name: "growth_score", Weight: 0.10},
		},
		Epsilon:            1e-9,
		WeightSumTolerance: 0.001,
		HoldThreshold:      0.5,
		StrongThreshold:    1.5,
		LowCutoff:          0.5,
		HighCutoff:         0.8,
	}
}

// LoadFromFile reads and validates a scoring configuration. Fields
// omitted from the file fall back to the shipped defaults.
func LoadFromFile(path string) (*ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring config %s: %w", path, err)
	}

	cfg := Default()
	cfg.Dimensions = nil // file's dimension table replaces the default wholesale
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse scoring config %s: %w", path, err)
	}
	if len(cfg.Dimensions) == 0 {
		cfg.Dimensions = Default().Dimensions
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the weight-table invariants.
func (c *ScoringConfig) Validate() error {
	if len(c.Dimensions) == 0 {
		return fmt.Errorf("%w: no dimensions configured", ErrMissingDimension)
	}

	seen := make(map[string]struct{}, len(c.Dimensions))
	sum := 0.0
	for _, d := range c.Dimensions {
		if d.Name == "" {
			return fmt.Errorf("%w: dimension with empty name", ErrMissingDimension)
		}
		if d.Weight <= 0 || math.IsNaN(d.Weight) || math.IsInf(d.Weight, 0) {
			return fmt.Errorf("%w: dimension %s has weight %v", ErrMissingDimension, d.Name, d.Weight)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: duplicate dimension %s", ErrMissingDimension, d.Name)
		}
		seen[d.Name] = struct{}{}
		sum += d.Weight
	}

	tolerance := c.WeightSumTolerance
	if tolerance <= 0 {
		tolerance = 0.001
	}
	if math.Abs(sum-1.0) > tolerance {
		return fmt.Errorf("%w: got %.4f", ErrMissingDimension, sum)
	}

	if c.HoldThreshold <= 0 || c.StrongThreshold <= c.HoldThreshold {
		return fmt.Errorf("recommendation thresholds must be ordered: hold=%v strong=%v",
			c.HoldThreshold, c.StrongThreshold)
	}
	if c.LowCutoff <= 0 || c.HighCutoff <= c.LowCutoff || c.HighCutoff >= 1 {
		return fmt.Errorf("confidence cutoffs must satisfy 0 < low < high < 1: low=%v high=%v",
			c.LowCutoff, c.HighCutoff)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive: %v", c.Epsilon)
	}

	return nil
}

// Weight returns the configured weight for a dimension name.
func (c *ScoringConfig) Weight(name string) (float64, bool) {
	for _, d := range c.Dimensions {
		if d.Name == name {
			return d.Weight, true
		}
	}
	return 0, false
}

// DimensionNames returns the configured dimension names in table order.
func (c *ScoringConfig) DimensionNames() []string {
	names := make([]string, 0, len(c.Dimensions))
	for _, d := range c.Dimensions {
		names = append(names, d.Name)
	}
	return names
}
