// Package aggregation groups cleaned protocol records into
// per-category summaries and ecosystem-level concentration statistics.
package aggregation

import (
	"sort"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/stats"
)

// Aggregate produces one CategorySummary per distinct category present
// in the input. Records with an unrecognized category were already
// bucketed into Other by the cleaning stage, so the aggregation is
// total: summary counts always add up to len(records). Output is sorted
// by total TVL descending, then category name ascending.
func Aggregate(records []*domain.ProtocolRecord, eco domain.Ecosystem, runDate string) []*domain.CategorySummary {
	type bucket struct {
		count  int
		tvl    float64
		growth []float64
	}
	buckets := make(map[domain.Category]*bucket)

	for _, r := range records {
		b, ok := buckets[r.Category]
		if !ok {
			b = &bucket{}
			buckets[r.Category] = b
		}
		b.count++
		b.tvl += r.TVL
		b.growth = append(b.growth, r.GrowthScore)
	}

	summaries := make([]*domain.CategorySummary, 0, len(buckets))
	for cat, b := range buckets {
		summaries = append(summaries, &domain.CategorySummary{
			Ecosystem:       eco,
			Category:        cat,
			ProtocolCount:   b.count,
			TotalTVL:        b.tvl,
			MeanTVL:         b.tvl / float64(b.count),
			MeanGrowthScore: stats.Mean(b.growth),
			RunDate:         runDate,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalTVL != summaries[j].TotalTVL {
			return summaries[i].TotalTVL > summaries[j].TotalTVL
		}
		return summaries[i].Category < summaries[j].Category
	})
	return summaries
}

// TotalTVL sums the TVL of all records.
func TotalTVL(records []*domain.ProtocolRecord) float64 {
	sum := 0.0
	for _, r := range records {
		sum += r.TVL
	}
	return sum
}

// MeanGrowthScore averages the growth scores of all records.
func MeanGrowthScore(records []*domain.ProtocolRecord) float64 {
	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = r.GrowthScore
	}
	return stats.Mean(scores)
}
