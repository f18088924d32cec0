package memory

import (
	"context"
	"sort"
	"sync"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// CompositeScoreStore is an in-memory implementation of storage.CompositeScoreStore.
type CompositeScoreStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CompositeScore // keyed by run_date
}

// NewCompositeScoreStore creates a new in-memory composite score store.
func NewCompositeScoreStore() *CompositeScoreStore {
	return &CompositeScoreStore{
		data: make(map[string]*domain.CompositeScore),
	}
}

// Compile-time interface check.
var _ storage.CompositeScoreStore = (*CompositeScoreStore)(nil)

// Insert adds a new score. Returns ErrDuplicateKey if the run date
// already has a score.
func (s *CompositeScoreStore) Insert(_ context.Context, score *domain.CompositeScore) error {
	if score == nil || score.RunDate == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[score.RunDate]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[score.RunDate] = copyScore(score)
	return nil
}

// GetByRun retrieves the score for a run date. Returns ErrNotFound
// if not exists.
func (s *CompositeScoreStore) GetByRun(_ context.Context, runDate string) (*domain.CompositeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	score, exists := s.data[runDate]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyScore(score), nil
}

// GetAll retrieves all scores, ordered by run date ASC.
func (s *CompositeScoreStore) GetAll(_ context.Context) ([]*domain.CompositeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CompositeScore, 0, len(s.data))
	for _, score := range s.data {
		result = append(result, copyScore(score))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RunDate < result[j].RunDate
	})

	return result, nil
}

// copyScore deep-copies a score so callers cannot mutate stored state.
func copyScore(score *domain.CompositeScore) *domain.CompositeScore {
	scoreCopy := *score
	scoreCopy.Scores = make(map[domain.Ecosystem]float64, len(score.Scores))
	for k, v := range score.Scores {
		scoreCopy.Scores[k] = v
	}
	scoreCopy.UsedDimensions = append([]string(nil), score.UsedDimensions...)
	scoreCopy.PartialMetrics = append([]string(nil), score.PartialMetrics...)
	return &scoreCopy
}
