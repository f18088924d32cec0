package reporting

import (
	"fmt"
	"time"

	"sui-aptos-lab/internal/domain"
)

// Input carries everything the generator needs for one run.
type Input struct {
	RunDate           string
	Score             *domain.CompositeScore
	Metrics           []domain.ComparisonMetric
	CategorySummaries []*domain.CategorySummary
	Concentration     map[domain.Ecosystem]domain.ConcentrationStats
	SizeDistribution  map[domain.Ecosystem][]domain.SizeBucket
	DailyCorrelation  float64
	CorrelationLabel  string
}

// defaultRisks are the standing risk factors attached to every summary.
var defaultRisks = []string{
	"Market volatility in crypto sector",
	"Regulatory changes affecting DeFi",
	"Competition from other L1 blockchains",
	"Technical risks in smart contracts",
}

// defaultHoldingPeriod is the suggested horizon for the recommendation.
const defaultHoldingPeriod = "3-6 months"

// Generator assembles the report object from a run's outputs.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the final report object. It never fails: malformed
// inputs are rejected by the earlier stages.
func (g *Generator) Generate(in Input) *Report {
	keyMetrics := make(map[string]map[domain.Ecosystem]float64, len(in.Metrics))
	for _, m := range in.Metrics {
		values := make(map[domain.Ecosystem]float64, len(m.Values))
		for eco, v := range m.Values {
			values[eco] = v
		}
		keyMetrics[m.Name] = values
	}

	return &Report{
		GeneratedAt:             g.now(),
		RunDate:                 in.RunDate,
		CoreFinding:             coreFinding(in.Score),
		Confidence:              in.Score.Confidence,
		Scores:                  in.Score.Scores,
		Recommendation:          in.Score.Recommendation,
		InvestmentLogic:         investmentLogic(in.Score),
		Risks:                   defaultRisks,
		HoldingPeriodSuggestion: defaultHoldingPeriod,
		KeyMetrics:              keyMetrics,
		CategorySummaries:       in.CategorySummaries,
		Concentration:           in.Concentration,
		SizeDistribution:        in.SizeDistribution,
		Correlation: CorrelationSection{
			DailyCorrelation: in.DailyCorrelation,
			Strength:         in.CorrelationLabel,
		},
		PartialMetrics: in.Score.PartialMetrics,
	}
}

// coreFinding is the one-line headline: the recommendation plus the
// score gap.
func coreFinding(score *domain.CompositeScore) string {
	sui := score.Scores[domain.EcosystemSui]
	aptos := score.Scores[domain.EcosystemAptos]
	return fmt.Sprintf("%s (SUI %.1f/10 vs APT %.1f/10)", score.Recommendation, sui, aptos)
}

// investmentLogic explains the recommendation in one sentence.
func investmentLogic(score *domain.CompositeScore) string {
	diff := score.ScoreDiff()
	switch score.Recommendation.Action {
	case domain.ActionHold:
		return "Neither ecosystem holds a decisive edge across the scored dimensions; the gap is inside the noise band."
	case domain.ActionStrongBuy:
		return fmt.Sprintf("%s leads decisively across the weighted dimensions (score gap %.1f).",
			score.Recommendation.Target.Token(), abs(diff))
	default:
		return fmt.Sprintf("%s holds a modest edge across the weighted dimensions (score gap %.1f).",
			score.Recommendation.Target.Token(), abs(diff))
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
