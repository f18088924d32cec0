package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// PricePointStore is an in-memory implementation of storage.PricePointStore.
type PricePointStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricePoint // keyed by (ecosystem, date)
}

// NewPricePointStore creates a new in-memory price point store.
func NewPricePointStore() *PricePointStore {
	return &PricePointStore{
		data: make(map[string]*domain.PricePoint),
	}
}

// Compile-time interface check.
var _ storage.PricePointStore = (*PricePointStore)(nil)

// priceKey generates a unique key for a price point.
func priceKey(eco domain.Ecosystem, date time.Time) string {
	return fmt.Sprintf("%s|%s", eco, date.UTC().Format(domain.PriceDateLayout))
}

// InsertBulk adds multiple points. Fails the entire batch on any
// duplicate (ecosystem, date).
func (s *PricePointStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))

	for _, p := range points {
		if p == nil || p.Ecosystem == "" || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := priceKey(p.Ecosystem, p.Date)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		key := priceKey(p.Ecosystem, p.Date)
		pointCopy := *p
		s.data[key] = &pointCopy
	}

	return nil
}

// GetByEcosystem retrieves all points for an ecosystem, ordered by date ASC.
func (s *PricePointStore) GetByEcosystem(_ context.Context, eco domain.Ecosystem) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if p.Ecosystem == eco {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// GetByDateRange retrieves points within [start, end] (inclusive),
// ordered by date ASC.
func (s *PricePointStore) GetByDateRange(_ context.Context, eco domain.Ecosystem, start, end time.Time) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if p.Ecosystem != eco {
			continue
		}
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		pointCopy := *p
		result = append(result, &pointCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}
