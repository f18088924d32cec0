package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// CategorySummaryStore is an in-memory implementation of storage.CategorySummaryStore.
type CategorySummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CategorySummary // keyed by (run_date, ecosystem, category)
}

// NewCategorySummaryStore creates a new in-memory category summary store.
func NewCategorySummaryStore() *CategorySummaryStore {
	return &CategorySummaryStore{
		data: make(map[string]*domain.CategorySummary),
	}
}

// Compile-time interface check.
var _ storage.CategorySummaryStore = (*CategorySummaryStore)(nil)

// summaryKey generates a unique key for a category summary.
func summaryKey(runDate string, eco domain.Ecosystem, category domain.Category) string {
	return fmt.Sprintf("%s|%s|%s", runDate, eco, category)
}

// InsertBulk adds multiple summaries. Fails the entire batch on any
// duplicate (run_date, ecosystem, category).
func (s *CategorySummaryStore) InsertBulk(_ context.Context, summaries []*domain.CategorySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(summaries))

	for _, cs := range summaries {
		if cs == nil || cs.RunDate == "" || cs.Category == "" {
			return storage.ErrInvalidInput
		}
		key := summaryKey(cs.RunDate, cs.Ecosystem, cs.Category)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, cs := range summaries {
		key := summaryKey(cs.RunDate, cs.Ecosystem, cs.Category)
		summaryCopy := *cs
		s.data[key] = &summaryCopy
	}

	return nil
}

// GetByRun retrieves all summaries for a run date, ordered by
// ecosystem, total TVL DESC, category ASC.
func (s *CategorySummaryStore) GetByRun(_ context.Context, runDate string) ([]*domain.CategorySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CategorySummary
	for _, cs := range s.data {
		if cs.RunDate == runDate {
			summaryCopy := *cs
			result = append(result, &summaryCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Ecosystem != result[j].Ecosystem {
			return result[i].Ecosystem < result[j].Ecosystem
		}
		if result[i].TotalTVL != result[j].TotalTVL {
			return result[i].TotalTVL > result[j].TotalTVL
		}
		return result[i].Category < result[j].Category
	})

	return result, nil
}
