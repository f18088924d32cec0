package scoring

import (
	"errors"
	"fmt"
	"math"

	"sui-aptos-lab/internal/config"
	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/normalization"
)

// ErrNoUsableDimensions is returned when every configured dimension is
// partial or absent, leaving nothing to score.
var ErrNoUsableDimensions = errors.New("no usable dimensions to score")

// Scorer turns comparison metrics into a composite score using a
// validated weight table.
type Scorer struct {
	cfg *config.ScoringConfig
}

// NewScorer validates the configuration and returns a Scorer.
func NewScorer(cfg *config.ScoringConfig) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes a 0-10 composite per ecosystem from the configured
// dimensions, plus the recommendation and confidence grade. Metrics
// without a configured weight are ignored. Partial or missing
// configured dimensions are excluded from the weighted sum (the
// remaining weights are renormalized) and only degrade confidence.
func (s *Scorer) Score(metrics []domain.ComparisonMetric, runDate string) (*domain.CompositeScore, error) {
	byName := make(map[string]domain.ComparisonMetric, len(metrics))
	for _, m := range metrics {
		byName[m.Name] = m
	}

	var (
		weightedSui, weightedAptos float64
		usableWeight               float64
		used, partial              []string
	)

	for _, dim := range s.cfg.Dimensions {
		m, ok := byName[dim.Name]
		if !ok || m.Partial {
			partial = append(partial, dim.Name)
			continue
		}

		a := m.Values[domain.EcosystemSui]
		b := m.Values[domain.EcosystemAptos]
		na, nb, err := normalization.NormalizePair(a, b, false)
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", dim.Name, err)
		}
		if dim.LowerIsBetter {
			na, nb = 1-na, 1-nb
		}

		weightedSui += na * dim.Weight
		weightedAptos += nb * dim.Weight
		usableWeight += dim.Weight
		used = append(used, dim.Name)
	}

	if usableWeight == 0 {
		return nil, ErrNoUsableDimensions
	}

	// Renormalize by the usable weight so dropped dimensions do not
	// drag both scores toward zero, then scale onto 0-10.
	suiScore := weightedSui / usableWeight * 10
	aptosScore := weightedAptos / usableWeight * 10

	score := &domain.CompositeScore{
		Scores: map[domain.Ecosystem]float64{
			domain.EcosystemSui:   suiScore,
			domain.EcosystemAptos: aptosScore,
		},
		UsedDimensions: used,
		PartialMetrics: partial,
		RunDate:        runDate,
	}
	score.Recommendation = s.recommend(score.ScoreDiff())
	score.Confidence = s.confidence(len(used))
	return score, nil
}

// recommend maps the signed score difference onto the ordered action
// thresholds. Direction follows the sign: positive favors Sui.
func (s *Scorer) recommend(diff float64) domain.Recommendation {
	abs := math.Abs(diff)
	if abs < s.cfg.HoldThreshold {
		return domain.Recommendation{Action: domain.ActionHold}
	}

	target := domain.EcosystemSui
	if diff < 0 {
		target = domain.EcosystemAptos
	}

	action := domain.ActionModerateBuy
	if abs >= s.cfg.StrongThreshold {
		action = domain.ActionStrongBuy
	}
	return domain.Recommendation{Action: action, Target: target}
}

// confidence grades the usable share of configured dimensions.
func (s *Scorer) confidence(usable int) domain.Confidence {
	ratio := float64(usable) / float64(len(s.cfg.Dimensions))
	switch {
	case ratio < s.cfg.LowCutoff:
		return domain.ConfidenceLow
	case ratio <= s.cfg.HighCutoff:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceHigh
	}
}
