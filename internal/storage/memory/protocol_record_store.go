package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// ProtocolRecordStore is an in-memory implementation of storage.ProtocolRecordStore.
type ProtocolRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ProtocolRecord // keyed by (run_date, ecosystem, slug)
}

// NewProtocolRecordStore creates a new in-memory protocol record store.
func NewProtocolRecordStore() *ProtocolRecordStore {
	return &ProtocolRecordStore{
		data: make(map[string]*domain.ProtocolRecord),
	}
}

// Compile-time interface check.
var _ storage.ProtocolRecordStore = (*ProtocolRecordStore)(nil)

// recordKey generates a unique key for a protocol record.
func recordKey(runDate string, eco domain.Ecosystem, slug string) string {
	return fmt.Sprintf("%s|%s|%s", runDate, eco, slug)
}

// InsertBulk adds multiple records atomically. Fails the entire batch
// on any duplicate (run_date, ecosystem, slug).
func (s *ProtocolRecordStore) InsertBulk(_ context.Context, records []*domain.ProtocolRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(records))

	for _, r := range records {
		if r == nil || r.Slug == "" || r.RunDate == "" {
			return storage.ErrInvalidInput
		}
		key := recordKey(r.RunDate, r.Ecosystem, r.Slug)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range records {
		key := recordKey(r.RunDate, r.Ecosystem, r.Slug)
		recordCopy := *r
		s.data[key] = &recordCopy
	}

	return nil
}

// GetByRun retrieves all records for one (run_date, ecosystem),
// ordered by TVL DESC, slug ASC.
func (s *ProtocolRecordStore) GetByRun(_ context.Context, runDate string, eco domain.Ecosystem) ([]*domain.ProtocolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProtocolRecord
	for _, r := range s.data {
		if r.RunDate == runDate && r.Ecosystem == eco {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sortRecords(result)
	return result, nil
}

// GetByCategory retrieves records for one (run_date, ecosystem, category),
// ordered by TVL DESC, slug ASC.
func (s *ProtocolRecordStore) GetByCategory(_ context.Context, runDate string, eco domain.Ecosystem, category domain.Category) ([]*domain.ProtocolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ProtocolRecord
	for _, r := range s.data {
		if r.RunDate == runDate && r.Ecosystem == eco && r.Category == category {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sortRecords(result)
	return result, nil
}

func sortRecords(records []*domain.ProtocolRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].TVL != records[j].TVL {
			return records[i].TVL > records[j].TVL
		}
		return records[i].Slug < records[j].Slug
	})
}
