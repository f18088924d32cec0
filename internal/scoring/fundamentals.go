// Package scoring combines comparison metrics into composite 0-10
// scores per ecosystem and a qualitative recommendation.
package scoring

import (
	"sui-aptos-lab/internal/aggregation"
	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/stats"
)

// fundamental score component weights.
const (
	fundamentalTVLWeight       = 0.4
	fundamentalDiversityWeight = 0.3
	fundamentalGrowthWeight    = 0.3
)

// FundamentalInput is one ecosystem's data for the fundamental score.
type FundamentalInput struct {
	Records   []*domain.ProtocolRecord
	Return90d float64 // percent; 0 when the series is too short
}

// FundamentalScores grades both ecosystems on TVL, protocol diversity
// and 90-day price growth. The TVL leader anchors at 100 and the other
// side is scaled proportionally; growth maps the 90-day return onto
// a 0-100 band centered at 50. The combined figure feeds the
// "fundamentals" comparison dimension.
func FundamentalScores(sui, aptos FundamentalInput) map[domain.Ecosystem]float64 {
	suiTVL := aggregation.TotalTVL(sui.Records)
	aptosTVL := aggregation.TotalTVL(aptos.Records)

	var tvlSui, tvlAptos float64
	switch {
	case suiTVL <= 0 && aptosTVL <= 0:
		// No TVL data on either side: neutral.
	case suiTVL >= aptosTVL:
		tvlSui = 100
		tvlAptos = aptosTVL / suiTVL * 100
	default:
		tvlAptos = 100
		tvlSui = suiTVL / aptosTVL * 100
	}

	diversitySui := float64(len(sui.Records))
	diversityAptos := float64(len(aptos.Records))

	growthSui := stats.Clamp(50+sui.Return90d, 0, 100)
	growthAptos := stats.Clamp(50+aptos.Return90d, 0, 100)

	overall := func(tvl, diversity, growth float64) float64 {
		return tvl*fundamentalTVLWeight +
			diversity*fundamentalDiversityWeight +
			growth*fundamentalGrowthWeight
	}

	return map[domain.Ecosystem]float64{
		domain.EcosystemSui:   overall(tvlSui, diversitySui, growthSui),
		domain.EcosystemAptos: overall(tvlAptos, diversityAptos, growthAptos),
	}
}
