package aggregation

import (
	"sui-aptos-lab/internal/domain"
)

// Bracket upper bounds in USD; everything above the last bound lands in
// the open-ended top bucket.
var sizeBounds = []float64{1e6, 10e6, 100e6, 1e9}

var sizeLabels = []string{"<$1M", "$1M-$10M", "$10M-$100M", "$100M-$1B", ">$1B"}

// SizeDistribution counts an ecosystem's protocols per TVL bracket.
// Buckets come back in ascending bracket order, empty ones included, so
// the two ecosystems' distributions line up row by row.
func SizeDistribution(records []*domain.ProtocolRecord) []domain.SizeBucket {
	counts := make([]int, len(sizeLabels))
	for _, r := range records {
		counts[sizeBucketIndex(r.TVL)]++
	}

	buckets := make([]domain.SizeBucket, len(sizeLabels))
	for i, label := range sizeLabels {
		buckets[i] = domain.SizeBucket{Label: label, Count: counts[i]}
	}
	return buckets
}

func sizeBucketIndex(tvl float64) int {
	for i, bound := range sizeBounds {
		if tvl <= bound {
			return i
		}
	}
	return len(sizeBounds)
}
