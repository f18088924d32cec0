package pipeline

import (
	"math"
	"time"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/ingestion"
	"sui-aptos-lab/internal/storage/memory"
)

// MemoryStores returns a Stores set backed entirely by in-memory
// implementations, for fixture runs and tests.
func MemoryStores() Stores {
	return Stores{
		Protocols:  memory.NewProtocolRecordStore(),
		Prices:     memory.NewPricePointStore(),
		Categories: memory.NewCategorySummaryStore(),
		Scores:     memory.NewCompositeScoreStore(),
	}
}

// FixtureSnapshot builds a deterministic raw snapshot with 120 days of
// synthetic price history and a small protocol set per ecosystem. It
// exercises every pipeline stage without touching any upstream API.
func FixtureSnapshot(runDate string) *ingestion.RawSnapshot {
	end, err := time.Parse(ingestion.RunDateLayout, runDate)
	if err != nil {
		end = time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	}
	end = end.UTC()

	snap := &ingestion.RawSnapshot{
		RunDate:   runDate,
		FetchedAt: end,
		ChainTVL: map[domain.Ecosystem]float64{
			domain.EcosystemSui:   1.5e9,
			domain.EcosystemAptos: 0.9e9,
		},
		Protocols: map[domain.Ecosystem][]domain.RawProtocol{
			domain.EcosystemSui: {
				{Name: "Cetus", Slug: "cetus", Category: "Dexes", TVL: 180e6, Change1d: 1.2, Change7d: 4.5, Change30: -2.1},
				{Name: "NAVI Protocol", Slug: "navi", Category: "Lending", TVL: 150e6, Change1d: 0.4, Change7d: 2.0, Change30: 6.3},
				{Name: "Aftermath Finance", Slug: "aftermath", Category: "Dexes", TVL: 60e6, Change1d: -0.8, Change7d: 1.1, Change30: 3.2},
				{Name: "Scallop", Slug: "scallop", Category: "Lending", TVL: 90e6, Change1d: 0.1, Change7d: -1.4, Change30: 2.8},
				{Name: "Haedal", Slug: "haedal", Category: "Liquid Staking", TVL: 110e6, Change1d: 0.9, Change7d: 3.3, Change30: 8.1},
			},
			domain.EcosystemAptos: {
				{Name: "Thala", Slug: "thala", Category: "Dexes", TVL: 120e6, Change1d: 0.6, Change7d: 2.4, Change30: 4.0},
				{Name: "Aries Markets", Slug: "aries", Category: "Lending", TVL: 140e6, Change1d: 1.0, Change7d: 5.2, Change30: 9.5},
				{Name: "Amnis Finance", Slug: "amnis", Category: "Liquid Staking", TVL: 180e6, Change1d: 0.2, Change7d: 1.8, Change30: 5.5},
				{Name: "PancakeSwap", Slug: "pancakeswap", Category: "Dexes", TVL: 40e6, Change1d: -0.3, Change7d: 0.9, Change30: 1.2},
			},
		},
		Prices: map[domain.Ecosystem][]domain.PricePoint{
			domain.EcosystemSui:   syntheticHistory(domain.EcosystemSui, end, 4.0, 0.004),
			domain.EcosystemAptos: syntheticHistory(domain.EcosystemAptos, end, 6.0, -0.002),
		},
		Supply: map[domain.Ecosystem]*domain.SupplyInfo{
			domain.EcosystemSui: {
				Ecosystem:         domain.EcosystemSui,
				CirculatingSupply: 3.1e9,
				TotalSupply:       10e9,
				MaxSupply:         10e9,
				MarketCap:         12.4e9,
				FDV:               40e9,
				Price:             4.0,
			},
			domain.EcosystemAptos: {
				Ecosystem:         domain.EcosystemAptos,
				CirculatingSupply: 450e6,
				TotalSupply:       1.1e9,
				MarketCap:         2.7e9,
				FDV:               6.6e9,
				Price:             6.0,
			},
		},
	}
	return snap
}

// syntheticHistory generates 120 daily points ending at end: a smooth
// drift plus a bounded oscillation, so returns, volatility and drawdown
// are all non-degenerate.
func syntheticHistory(eco domain.Ecosystem, end time.Time, base, drift float64) []domain.PricePoint {
	const days = 120
	points := make([]domain.PricePoint, 0, days)
	start := end.AddDate(0, 0, -(days - 1))

	for i := 0; i < days; i++ {
		price := base * (1 + drift*float64(i)) * (1 + 0.03*math.Sin(float64(i)/9))
		points = append(points, domain.PricePoint{
			Ecosystem: eco,
			Date:      start.AddDate(0, 0, i),
			Price:     price,
			MarketCap: price * 1e9,
			Volume24h: 100e6 + 10e6*math.Cos(float64(i)/5),
		})
	}
	return points
}
