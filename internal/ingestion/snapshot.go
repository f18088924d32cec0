package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sui-aptos-lab/internal/domain"
)

// RunDateLayout is the snapshot key format, e.g. "20250115".
const RunDateLayout = "20060102"

// ErrNoSnapshot is returned when no snapshot exists for the requested
// run date (or at all, for Latest).
var ErrNoSnapshot = errors.New("no raw snapshot found")

// RawSnapshot is one day's worth of fetched raw data, persisted before
// cleaning so a run can be replayed without hitting upstream APIs.
type RawSnapshot struct {
	RunDate   string                                    `json:"run_date"`
	FetchedAt time.Time                                 `json:"fetched_at"`
	ChainTVL  map[domain.Ecosystem]float64              `json:"chain_tvl"`
	Protocols map[domain.Ecosystem][]domain.RawProtocol `json:"protocols"`
	Prices    map[domain.Ecosystem][]domain.PricePoint  `json:"prices"`
	Supply    map[domain.Ecosystem]*domain.SupplyInfo   `json:"supply"`
}

// SnapshotStore reads and writes dated raw snapshots as JSON files
// under a directory, one file per run date.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a store rooted at dir, creating it if needed.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

func (s *SnapshotStore) path(runDate string) string {
	return filepath.Join(s.dir, "snapshot_"+runDate+".json")
}

// Save writes the snapshot for its run date, replacing any existing
// file. The write goes through a temp file so a crash never leaves a
// truncated snapshot behind.
func (s *SnapshotStore) Save(snap *RawSnapshot) error {
	if snap == nil || snap.RunDate == "" {
		return fmt.Errorf("snapshot missing run date")
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "snapshot_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path(snap.RunDate)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot for the given run date.
func (s *SnapshotStore) Load(runDate string) (*RawSnapshot, error) {
	data, err := os.ReadFile(s.path(runDate))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: run date %s", ErrNoSnapshot, runDate)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap RawSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", runDate, err)
	}
	return &snap, nil
}

// Latest returns the most recent snapshot on disk. Run date keys sort
// lexicographically in chronological order.
func (s *SnapshotStore) Latest() (*RawSnapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var runDates []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "snapshot_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		runDates = append(runDates, strings.TrimSuffix(strings.TrimPrefix(name, "snapshot_"), ".json"))
	}
	if len(runDates) == 0 {
		return nil, ErrNoSnapshot
	}

	sort.Strings(runDates)
	return s.Load(runDates[len(runDates)-1])
}
