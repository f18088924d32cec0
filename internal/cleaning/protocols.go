// Package cleaning turns raw collection-stage exports into validated
// records: it filters non-DeFi entries, normalizes categories, derives
// growth scores and ranks, and computes price technical indicators.
package cleaning

import (
	"sort"
	"strings"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/stats"
)

// excludeKeywords filter centralized exchanges and other non-DeFi
// entries by name substring, case-insensitive.
var excludeKeywords = []string{
	"binance", "okx", "okex", "bybit", "gate", "htx", "huobi",
	"kucoin", "bitfinex", "bitstamp", "mexc", "kraken", "coinbase",
	"hashkey", "indodax", "phemex", "ftx", "crypto.com", "bitget", "xt.com",
	"cex", "exchange", "trading",
	"custody", "wallet",
}

// tvlUpperLimit caps plausible protocol TVL; anything above is treated
// as corrupt upstream data and dropped.
const tvlUpperLimit = 100e9

// growth score weights over the 7d/30d/1d change rates.
const (
	growthWeight7d  = 0.5
	growthWeight30d = 0.3
	growthWeight1d  = 0.2
)

// CleanProtocols filters and enriches one ecosystem's raw protocol
// export into immutable records. Records with a CEX-like name, TVL <= 0
// or TVL >= 100B are dropped; everything else is kept, with
// unrecognized categories bucketed into Other.
func CleanProtocols(raw []domain.RawProtocol, eco domain.Ecosystem, runDate string) []*domain.ProtocolRecord {
	records := make([]*domain.ProtocolRecord, 0, len(raw))
	for _, p := range raw {
		if isExcluded(p.Name) {
			continue
		}
		if p.TVL <= 0 || p.TVL >= tvlUpperLimit {
			continue
		}

		records = append(records, &domain.ProtocolRecord{
			Slug:        p.Slug,
			Name:        p.Name,
			Ecosystem:   eco,
			Category:    domain.NormalizeCategory(p.Category),
			TVL:         p.TVL,
			Change1d:    p.Change1d,
			Change7d:    p.Change7d,
			Change30:    p.Change30,
			GrowthScore: GrowthScore(p.Change1d, p.Change7d, p.Change30),
			RunDate:     runDate,
		})
	}

	flagOutliers(records)
	assignRanks(records)
	return records
}

// GrowthScore combines TVL change rates into one momentum figure.
func GrowthScore(change1d, change7d, change30d float64) float64 {
	return change7d*growthWeight7d + change30d*growthWeight30d + change1d*growthWeight1d
}

// isExcluded reports whether a protocol name matches the CEX/non-DeFi
// keyword list.
func isExcluded(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range excludeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// flagOutliers marks records whose TVL exceeds the 99th percentile of
// the batch.
func flagOutliers(records []*domain.ProtocolRecord) {
	if len(records) == 0 {
		return
	}
	tvls := make([]float64, len(records))
	for i, r := range records {
		tvls[i] = r.TVL
	}
	q99 := stats.Percentile(tvls, 0.99)
	for _, r := range records {
		r.Outlier = r.TVL > q99
	}
}

// assignRanks sets 1-based dense ranks by TVL and growth score, both
// descending. Equal values share a rank.
func assignRanks(records []*domain.ProtocolRecord) {
	tvlRank := denseRanks(records, func(r *domain.ProtocolRecord) float64 { return r.TVL })
	growthRank := denseRanks(records, func(r *domain.ProtocolRecord) float64 { return r.GrowthScore })
	for i, r := range records {
		r.TVLRank = tvlRank[i]
		r.GrowthRank = growthRank[i]
	}
}

// denseRanks ranks records by a key descending: distinct values get
// consecutive ranks starting at 1.
func denseRanks(records []*domain.ProtocolRecord, key func(*domain.ProtocolRecord) float64) []int {
	distinct := make([]float64, 0, len(records))
	seen := make(map[float64]struct{}, len(records))
	for _, r := range records {
		v := key(r)
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			distinct = append(distinct, v)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	rankOf := make(map[float64]int, len(distinct))
	for i, v := range distinct {
		rankOf[v] = i + 1
	}

	ranks := make([]int, len(records))
	for i, r := range records {
		ranks[i] = rankOf[key(r)]
	}
	return ranks
}
