package comparison

import (
	"sui-aptos-lab/internal/aggregation"
	"sui-aptos-lab/internal/cleaning"
	"sui-aptos-lab/internal/domain"
)

// Dimension names produced by BuildDimensions. The scorer's weight
// table refers to these.
const (
	DimReturn7d      = "return_7d"
	DimReturn30d     = "return_30d"
	DimReturn90d     = "return_90d"
	DimReturn180d    = "return_180d"
	DimVolatility30d = "volatility_30d"
	DimMaxDrawdown   = "max_drawdown"
	DimSharpe90d     = "sharpe_90d"
	DimTVLEfficiency = "tvl_efficiency"
	DimGrowthScore   = "growth_score"
	DimDiversity     = "diversity"
	DimMcapTVLRatio  = "mcap_tvl_ratio"
	DimAvgTVL        = "avg_protocol_tvl"
	DimCirculation   = "circulation_ratio"
	DimMcapFDV       = "mcap_fdv_ratio"

	// DimFundamentals is computed by the scoring package and merged in
	// by the pipeline, not by BuildDimensions.
	DimFundamentals = "fundamentals"
)

// EcosystemData is one ecosystem's cleaned inputs to the comparator.
type EcosystemData struct {
	Ecosystem domain.Ecosystem
	Records   []*domain.ProtocolRecord
	Prices    *domain.PriceSeries
	Supply    *domain.SupplyInfo // optional
}

// BuildDimensions derives the named metric set for one ecosystem. A
// dimension whose underlying data is unavailable (series too short,
// no supply info) is omitted rather than zero-filled, so the comparator
// can flag it partial.
func BuildDimensions(data EcosystemData) map[string]float64 {
	dims := make(map[string]float64)

	if data.Prices != nil && data.Prices.Len() > 0 {
		s := data.Prices

		addReturn := func(name string, days int) {
			if ret, ok := s.ReturnOverDays(days); ok {
				dims[name] = ret
			}
		}
		addReturn(DimReturn7d, 7)
		addReturn(DimReturn30d, 30)
		addReturn(DimReturn90d, 90)
		addReturn(DimReturn180d, 180)

		if s.Len() > 30 {
			dims[DimVolatility30d] = cleaning.AnnualizedVolatility(s, 30)
		}
		dims[DimMaxDrawdown] = cleaning.MaxDrawdown(s)
		if s.Len() > 90 {
			dims[DimSharpe90d] = cleaning.SharpeRatio(s, 90)
		}
	}

	if len(data.Records) > 0 {
		dims[DimDiversity] = float64(len(data.Records))
		dims[DimGrowthScore] = aggregation.MeanGrowthScore(data.Records)
		dims[DimAvgTVL] = aggregation.TotalTVL(data.Records) / float64(len(data.Records))
	}

	if data.Supply != nil && data.Supply.MarketCap > 0 {
		totalTVL := aggregation.TotalTVL(data.Records)
		// TVL attracted per $1B of market cap.
		dims[DimTVLEfficiency] = totalTVL / (data.Supply.MarketCap / 1e9)
		if totalTVL > 0 {
			dims[DimMcapTVLRatio] = data.Supply.MarketCap / totalTVL
		}
		dims[DimCirculation] = data.Supply.CirculationRatio()
		dims[DimMcapFDV] = data.Supply.McapFDVRatio()
	}

	return dims
}
