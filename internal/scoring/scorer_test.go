package scoring

import (
	"errors"
	"math"
	"testing"

	"sui-aptos-lab/internal/config"
	"sui-aptos-lab/internal/domain"
)

func metric(name string, sui, aptos float64) domain.ComparisonMetric {
	return domain.ComparisonMetric{
		Name: name,
		Values: map[domain.Ecosystem]float64{
			domain.EcosystemSui:   sui,
			domain.EcosystemAptos: aptos,
		},
	}
}

func partialMetric(name string, sui float64) domain.ComparisonMetric {
	m := metric(name, sui, 0)
	m.Partial = true
	return m
}

func twoDimConfig(w1, w2 float64) *config.ScoringConfig {
	cfg := config.Default()
	cfg.Dimensions = []config.Dimension{
		{Name: "return_90d", Weight: w1},
		{Name: "growth_score", Weight: w2},
	}
	return cfg
}

func TestNewScorer_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Dimensions = []config.Dimension{{Name: "return_90d", Weight: 0.4}}

	_, err := NewScorer(cfg)
	if !errors.Is(err, config.ErrMissingDimension) {
		t.Fatalf("error = %v, want ErrMissingDimension", err)
	}
}

func TestScore_Hold(t *testing.T) {
	scorer, err := NewScorer(twoDimConfig(0.5, 0.5))
	if err != nil {
		t.Fatal(err)
	}

	// Each side wins one equally-weighted dimension: scores tie.
	metrics := []domain.ComparisonMetric{
		metric("return_90d", 10, 5),
		metric("growth_score", 1, 3),
	}

	score, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}
	if d := score.ScoreDiff(); math.Abs(d) > 1e-9 {
		t.Errorf("score diff = %v, want 0", d)
	}
	if score.Recommendation.Action != domain.ActionHold {
		t.Errorf("action = %q, want Hold", score.Recommendation.Action)
	}
	if score.Recommendation.Target != "" {
		t.Errorf("Hold must carry no target, got %q", score.Recommendation.Target)
	}
}

func TestScore_ModerateBuy(t *testing.T) {
	scorer, err := NewScorer(twoDimConfig(0.55, 0.45))
	if err != nil {
		t.Fatal(err)
	}

	// Sui wins the 0.55 dimension, Aptos the 0.45: 5.5 vs 4.5.
	metrics := []domain.ComparisonMetric{
		metric("return_90d", 10, 5),
		metric("growth_score", 1, 3),
	}

	score, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}

	if got := score.Scores[domain.EcosystemSui]; math.Abs(got-5.5) > 1e-9 {
		t.Errorf("sui score = %v, want 5.5", got)
	}
	if got := score.Scores[domain.EcosystemAptos]; math.Abs(got-4.5) > 1e-9 {
		t.Errorf("aptos score = %v, want 4.5", got)
	}
	if score.Recommendation.Action != domain.ActionModerateBuy {
		t.Errorf("action = %q, want Moderate Buy", score.Recommendation.Action)
	}
	if score.Recommendation.Target != domain.EcosystemSui {
		t.Errorf("target = %q, want sui", score.Recommendation.Target)
	}
}

func TestScore_StrongBuy(t *testing.T) {
	scorer, err := NewScorer(twoDimConfig(0.6, 0.4))
	if err != nil {
		t.Fatal(err)
	}

	// Aptos wins both dimensions: 0 vs 10.
	metrics := []domain.ComparisonMetric{
		metric("return_90d", -10, 5),
		metric("growth_score", 1, 3),
	}

	score, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}
	if score.Recommendation.Action != domain.ActionStrongBuy {
		t.Errorf("action = %q, want Strong Buy", score.Recommendation.Action)
	}
	if score.Recommendation.Target != domain.EcosystemAptos {
		t.Errorf("target = %q, want aptos", score.Recommendation.Target)
	}
}

func TestRecommend_SpecScoreGap(t *testing.T) {
	scorer, err := NewScorer(config.Default())
	if err != nil {
		t.Fatal(err)
	}

	// 4.7 vs 5.3: |diff| = 0.6 falls in the moderate band, direction
	// favors the higher-scored side.
	rec := scorer.recommend(4.7 - 5.3)
	if rec.Action != domain.ActionModerateBuy {
		t.Errorf("action = %q, want Moderate Buy", rec.Action)
	}
	if rec.Target != domain.EcosystemAptos {
		t.Errorf("target = %q, want aptos", rec.Target)
	}
	if rec.String() != "Moderate Buy APT" {
		t.Errorf("String() = %q, want %q", rec.String(), "Moderate Buy APT")
	}
}

func TestScore_LowerIsBetter(t *testing.T) {
	cfg := config.Default()
	cfg.Dimensions = []config.Dimension{
		{Name: "volatility_30d", Weight: 1.0, LowerIsBetter: true},
	}
	scorer, err := NewScorer(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Sui is more volatile: it must score lower.
	metrics := []domain.ComparisonMetric{
		metric("volatility_30d", 0.9, 0.4),
	}

	score, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}
	if score.Scores[domain.EcosystemSui] >= score.Scores[domain.EcosystemAptos] {
		t.Errorf("volatile side scored higher: sui=%v aptos=%v",
			score.Scores[domain.EcosystemSui], score.Scores[domain.EcosystemAptos])
	}
}

func TestScore_PartialRenormalization(t *testing.T) {
	scorer, err := NewScorer(twoDimConfig(0.5, 0.5))
	if err != nil {
		t.Fatal(err)
	}

	// growth_score is partial: only return_90d contributes, and its
	// weight is renormalized so the winner still reaches 10.
	metrics := []domain.ComparisonMetric{
		metric("return_90d", 10, 5),
		partialMetric("growth_score", 1),
	}

	score, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}

	if got := score.Scores[domain.EcosystemSui]; math.Abs(got-10) > 1e-9 {
		t.Errorf("sui score = %v, want 10", got)
	}
	if len(score.UsedDimensions) != 1 || score.UsedDimensions[0] != "return_90d" {
		t.Errorf("used = %v, want [return_90d]", score.UsedDimensions)
	}
	if len(score.PartialMetrics) != 1 || score.PartialMetrics[0] != "growth_score" {
		t.Errorf("partial = %v, want [growth_score]", score.PartialMetrics)
	}
}

func TestScore_UnconfiguredMetricIgnored(t *testing.T) {
	cfg := config.Default()
	cfg.Dimensions = []config.Dimension{{Name: "return_90d", Weight: 1.0}}
	scorer, err := NewScorer(cfg)
	if err != nil {
		t.Fatal(err)
	}

	metrics := []domain.ComparisonMetric{
		metric("return_90d", 10, 5),
		metric("some_exotic_metric", 1, 2),
	}

	score, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}
	if len(score.UsedDimensions) != 1 {
		t.Errorf("used = %v, want only return_90d", score.UsedDimensions)
	}
}

func TestScore_NoUsableDimensions(t *testing.T) {
	scorer, err := NewScorer(config.Default())
	if err != nil {
		t.Fatal(err)
	}

	metrics := []domain.ComparisonMetric{
		partialMetric("return_90d", 1),
	}

	_, err = scorer.Score(metrics, "20250115")
	if !errors.Is(err, ErrNoUsableDimensions) {
		t.Errorf("error = %v, want ErrNoUsableDimensions", err)
	}
}

func TestScore_Confidence(t *testing.T) {
	// Default table has 8 dimensions.
	cases := []struct {
		usable int
		want   domain.Confidence
	}{
		{3, domain.ConfidenceLow},    // 37.5%
		{4, domain.ConfidenceMedium}, // 50%
		{6, domain.ConfidenceMedium}, // 75%
		{7, domain.ConfidenceHigh},   // 87.5%
		{8, domain.ConfidenceHigh},
	}

	scorer, err := NewScorer(config.Default())
	if err != nil {
		t.Fatal(err)
	}

	for _, tt := range cases {
		if got := scorer.confidence(tt.usable); got != tt.want {
			t.Errorf("confidence(%d of 8) = %q, want %q", tt.usable, got, tt.want)
		}
	}
}

func TestScore_Deterministic(t *testing.T) {
	scorer, err := NewScorer(config.Default())
	if err != nil {
		t.Fatal(err)
	}

	metrics := []domain.ComparisonMetric{
		metric("return_90d", -4.8, -16.3),
		metric("return_30d", 2.1, 5.4),
		metric("volatility_30d", 0.61, 0.55),
		metric("fundamentals", 72.4, 81.9),
	}

	first, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}
	second, err := scorer.Score(metrics, "20250115")
	if err != nil {
		t.Fatal(err)
	}

	if first.Scores[domain.EcosystemSui] != second.Scores[domain.EcosystemSui] ||
		first.Scores[domain.EcosystemAptos] != second.Scores[domain.EcosystemAptos] {
		t.Errorf("scores differ across identical runs: %+v vs %+v", first.Scores, second.Scores)
	}
	if first.Recommendation != second.Recommendation {
		t.Errorf("recommendations differ: %+v vs %+v", first.Recommendation, second.Recommendation)
	}
}
