package domain

// CategorySummary is the derived aggregate for one (ecosystem, category)
// pair. Recomputed fully on each run, never mutated incrementally.
// Corresponds to category_summaries table in ClickHouse.
type CategorySummary struct {
	Ecosystem       Ecosystem
	Category        Category
	ProtocolCount   int
	TotalTVL        float64 // USD
	MeanTVL         float64 // USD
	MeanGrowthScore float64
	RunDate         string // YYYYMMDD snapshot key
}

// SizeBucket is one TVL bracket with the number of protocols whose TVL
// falls inside it.
type SizeBucket struct {
	Label string // e.g. "$10M-$100M"
	Count int
}

// ConcentrationStats describes how concentrated an ecosystem's TVL is
// across its protocols.
type ConcentrationStats struct {
	Ecosystem  Ecosystem
	Top1Share  float64 // percent of total TVL in the largest protocol
	Top5Share  float64 // percent in the 5 largest
	Top10Share float64 // percent in the 10 largest
	Herfindahl float64 // sum of squared TVL shares, 0..1
}

// SupplyInfo holds token supply data for an ecosystem's native token.
type SupplyInfo struct {
	Ecosystem         Ecosystem
	CirculatingSupply float64
	TotalSupply       float64
	MaxSupply         float64
	MarketCap         float64 // USD
	FDV               float64 // fully diluted valuation, USD
	Price             float64 // USD
}

// CirculationRatio returns circulating/total supply, or 1 when totals
// are unknown (assume fully circulating).
func (s SupplyInfo) CirculationRatio() float64 {
	if s.CirculatingSupply <= 0 || s.TotalSupply <= 0 {
		return 1.0
	}
	return s.CirculatingSupply / s.TotalSupply
}

// McapFDVRatio returns market cap over fully diluted valuation,
// or 1 when FDV is unknown.
func (s SupplyInfo) McapFDVRatio() float64 {
	if s.FDV <= 0 {
		return 1.0
	}
	return s.MarketCap / s.FDV
}
