package aggregation

import (
	"sort"

	"sui-aptos-lab/internal/domain"
)

// Concentration measures how much of an ecosystem's TVL sits in its
// largest protocols: top-1/5/10 shares (percent) and the Herfindahl
// index of TVL shares.
func Concentration(records []*domain.ProtocolRecord, eco domain.Ecosystem) domain.ConcentrationStats {
	stats := domain.ConcentrationStats{Ecosystem: eco}

	total := TotalTVL(records)
	if total <= 0 {
		return stats
	}

	tvls := make([]float64, len(records))
	for i, r := range records {
		tvls[i] = r.TVL
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(tvls)))

	topShare := func(n int) float64 {
		if n > len(tvls) {
			n = len(tvls)
		}
		sum := 0.0
		for _, v := range tvls[:n] {
			sum += v
		}
		return sum / total * 100
	}

	stats.Top1Share = topShare(1)
	stats.Top5Share = topShare(5)
	stats.Top10Share = topShare(10)

	for _, v := range tvls {
		share := v / total
		stats.Herfindahl += share * share
	}
	return stats
}
