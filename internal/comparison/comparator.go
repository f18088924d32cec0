// Package comparison builds named metric sets per ecosystem and turns
// them into relative-difference comparisons feeding the scorer.
package comparison

import (
	"math"
	"sort"

	"sui-aptos-lab/internal/domain"
)

// DefaultEpsilon floors the relative-difference denominator when both
// values are near zero.
const DefaultEpsilon = 1e-9

// Compare produces one ComparisonMetric per name present in either
// input set, ordered by name for determinism. A name missing from one
// side gets value 0 and Partial=true instead of a fabricated ratio.
func Compare(sui, aptos map[string]float64, epsilon float64) []domain.ComparisonMetric {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	names := make([]string, 0, len(sui)+len(aptos))
	seen := make(map[string]struct{}, len(sui)+len(aptos))
	for name := range sui {
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for name := range aptos {
		if _, ok := seen[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	metrics := make([]domain.ComparisonMetric, 0, len(names))
	for _, name := range names {
		a, okA := sui[name]
		b, okB := aptos[name]

		m := domain.ComparisonMetric{
			Name: name,
			Values: map[domain.Ecosystem]float64{
				domain.EcosystemSui:   a,
				domain.EcosystemAptos: b,
			},
			Partial: !okA || !okB,
		}
		m.RelativeDiff = RelativeDiff(a, b, epsilon)
		metrics = append(metrics, m)
	}
	return metrics
}

// RelativeDiff computes (a - b) / max(|a|, |b|, epsilon). The result is
// in [-2, 2] for same-sign values and exactly 0 for identical inputs.
func RelativeDiff(a, b, epsilon float64) float64 {
	denom := math.Max(math.Max(math.Abs(a), math.Abs(b)), epsilon)
	return (a - b) / denom
}
