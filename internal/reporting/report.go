package reporting

import (
	"time"

	"sui-aptos-lab/internal/domain"
)

// Report is the structured investment summary produced by one run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunDate     string // YYYYMMDD snapshot key

	// Headline
	CoreFinding string
	Confidence  domain.Confidence

	// Composite result
	Scores         map[domain.Ecosystem]float64
	Recommendation domain.Recommendation

	// Narrative
	InvestmentLogic         string
	Risks                   []string
	HoldingPeriodSuggestion string

	// KeyMetrics maps metric name -> ecosystem -> value for the
	// dimensions that fed the score.
	KeyMetrics map[string]map[domain.Ecosystem]float64

	// Supporting sections
	CategorySummaries []*domain.CategorySummary
	Concentration     map[domain.Ecosystem]domain.ConcentrationStats
	SizeDistribution  map[domain.Ecosystem][]domain.SizeBucket
	Correlation       CorrelationSection
	PartialMetrics    []string
}

// CorrelationSection describes how the two tokens' daily returns move
// together.
type CorrelationSection struct {
	DailyCorrelation float64
	Strength         string // High/Medium/Low
}
