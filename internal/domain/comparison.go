package domain

import "fmt"

// ComparisonMetric is one named dimension compared across both
// ecosystems. When one side's underlying data was unavailable its value
// is 0 and Partial is true; partial metrics never contribute to scores,
// only to the confidence calculation.
type ComparisonMetric struct {
	Name         string
	Values       map[Ecosystem]float64
	RelativeDiff float64 // (sui - aptos) / max(|sui|, |aptos|, eps)
	Partial      bool
}

// RecommendationAction is the qualitative investment action.
type RecommendationAction string

const (
	ActionStrongSell  RecommendationAction = "Strong Sell"
	ActionSell        RecommendationAction = "Sell"
	ActionHold        RecommendationAction = "Hold"
	ActionModerateBuy RecommendationAction = "Moderate Buy"
	ActionStrongBuy   RecommendationAction = "Strong Buy"
)

// Recommendation pairs an action with the ecosystem it targets.
// Hold carries no target.
type Recommendation struct {
	Action RecommendationAction
	Target Ecosystem // empty for Hold
}

// String renders the recommendation the way the investment summary
// prints it, e.g. "Moderate Buy APT".
func (r Recommendation) String() string {
	if r.Action == ActionHold || r.Target == "" {
		return string(r.Action)
	}
	return fmt.Sprintf("%s %s", r.Action, r.Target.Token())
}

// Confidence expresses how much of the configured dimension set was
// backed by usable (non-partial) data.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// CompositeScore is the final weighted result of one comparison run:
// a 0-10 score per ecosystem, the derived recommendation and the
// confidence grade. A deterministic function of its input metrics.
type CompositeScore struct {
	Scores         map[Ecosystem]float64 // 0-10
	Recommendation Recommendation
	Confidence     Confidence
	UsedDimensions []string // configured dimensions that contributed
	PartialMetrics []string // configured dimensions flagged partial
	RunDate        string   // YYYYMMDD snapshot key
}

// ScoreDiff returns score(Sui) - score(Aptos).
func (c *CompositeScore) ScoreDiff() float64 {
	return c.Scores[EcosystemSui] - c.Scores[EcosystemAptos]
}
