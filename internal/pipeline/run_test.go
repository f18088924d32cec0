package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sui-aptos-lab/internal/config"
	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/ingestion"
	"sui-aptos-lab/internal/reporting"
	"sui-aptos-lab/internal/storage"
)

func fixedClock() time.Time {
	return time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
}

func newTestRunner(t *testing.T, outDir string) *Runner {
	t.Helper()
	runner, err := NewRunner(MemoryStores(), config.Default(), outDir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner.WithClock(fixedClock)
}

func TestRunner_Run(t *testing.T) {
	outDir := t.TempDir()
	runner := newTestRunner(t, outDir)
	snap := FixtureSnapshot("20250115")

	result, err := runner.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.RunDate != "20250115" {
		t.Errorf("run date = %q", result.RunDate)
	}
	for _, eco := range domain.Ecosystems() {
		s := result.Score.Scores[eco]
		if s < 0 || s > 10 {
			t.Errorf("%s score = %v, want within [0, 10]", eco, s)
		}
	}
	if result.Report == nil || result.Report.CoreFinding == "" {
		t.Fatalf("report missing: %+v", result.Report)
	}

	// Stores must hold the run's data.
	stored, err := runner.stores.Protocols.GetByRun(context.Background(), "20250115", domain.EcosystemSui)
	if err != nil {
		t.Fatalf("GetByRun: %v", err)
	}
	if len(stored) == 0 {
		t.Error("no protocol records stored")
	}
	if _, err := runner.stores.Scores.GetByRun(context.Background(), "20250115"); err != nil {
		t.Errorf("score not stored: %v", err)
	}

	// All dated outputs must exist.
	wantFiles := []string{
		"sui_protocols_clean_20250115.csv",
		"aptos_protocols_clean_20250115.csv",
		"sui_price_clean_20250115.csv",
		"aptos_price_clean_20250115.csv",
		"category_summary_20250115.csv",
		"comparative_analysis_20250115.json",
		"investment_summary_20250115.md",
	}
	if len(result.OutputFiles) != len(wantFiles) {
		t.Errorf("got %d output files, want %d: %v", len(result.OutputFiles), len(wantFiles), result.OutputFiles)
	}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	md, err := os.ReadFile(filepath.Join(outDir, "investment_summary_20250115.md"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(md), result.Report.CoreFinding) {
		t.Error("summary markdown missing core finding")
	}
}

func TestRunner_Idempotent(t *testing.T) {
	runner := newTestRunner(t, t.TempDir())
	snap := FixtureSnapshot("20250115")

	first, err := runner.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// Rerunning the same snapshot hits duplicate keys in every store
	// and must still produce the identical result.
	second, err := runner.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if reporting.RenderMarkdown(first.Report) != reporting.RenderMarkdown(second.Report) {
		t.Error("reruns produced different reports")
	}
	if first.Score.Recommendation != second.Score.Recommendation {
		t.Errorf("recommendation changed across reruns: %v vs %v",
			first.Score.Recommendation, second.Score.Recommendation)
	}

	// The stores must not hold duplicated rows.
	stored, err := runner.stores.Protocols.GetByRun(context.Background(), "20250115", domain.EcosystemSui)
	if err != nil {
		t.Fatalf("GetByRun: %v", err)
	}
	if len(stored) != len(FixtureSnapshot("20250115").Protocols[domain.EcosystemSui]) {
		t.Errorf("stored %d protocol records after rerun", len(stored))
	}
}

func TestRunner_ConsecutiveDaysKeepNewPrices(t *testing.T) {
	runner := newTestRunner(t, "")
	ctx := context.Background()

	if _, err := runner.Run(ctx, FixtureSnapshot("20250115")); err != nil {
		t.Fatalf("day 1 Run: %v", err)
	}
	// The day-2 series overlaps day 1 on all but its newest date. Only
	// that new point may be inserted, and it must not be lost.
	if _, err := runner.Run(ctx, FixtureSnapshot("20250116")); err != nil {
		t.Fatalf("day 2 Run: %v", err)
	}

	for _, eco := range domain.Ecosystems() {
		points, err := runner.stores.Prices.GetByEcosystem(ctx, eco)
		if err != nil {
			t.Fatalf("GetByEcosystem(%s): %v", eco, err)
		}
		if len(points) != 121 {
			t.Errorf("%s: stored %d points after two daily runs, want 121", eco, len(points))
		}
		want := time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)
		if last := points[len(points)-1].Date; !last.Equal(want) {
			t.Errorf("%s: latest stored date = %s, want %s",
				eco, last.Format(domain.PriceDateLayout), want.Format(domain.PriceDateLayout))
		}
	}
}

func TestRunner_PartialSupplyDoesNotPanic(t *testing.T) {
	runner := newTestRunner(t, "")
	snap := FixtureSnapshot("20250115")
	// One side loses its supply data: the supply-derived dimensions
	// become partial and must only degrade confidence.
	delete(snap.Supply, domain.EcosystemAptos)

	result, err := runner.Run(context.Background(), snap)
	if err != nil {
		t.Fatalf("Run with partial supply: %v", err)
	}

	if len(result.Score.PartialMetrics) == 0 {
		t.Error("expected partial metrics when one side lacks supply data")
	}
	for _, name := range result.Score.PartialMetrics {
		for _, used := range result.Score.UsedDimensions {
			if name == used {
				t.Errorf("dimension %q both partial and used", name)
			}
		}
	}
}

func TestRunner_NoOutputDir(t *testing.T) {
	runner := newTestRunner(t, "")

	result, err := runner.Run(context.Background(), FixtureSnapshot("20250115"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.OutputFiles) != 0 {
		t.Errorf("unexpected output files: %v", result.OutputFiles)
	}
}

func TestRunner_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Dimensions[0].Weight += 0.5

	if _, err := NewRunner(MemoryStores(), cfg, "", zerolog.Nop()); !errors.Is(err, config.ErrMissingDimension) {
		t.Errorf("err = %v, want ErrMissingDimension", err)
	}
}

func TestRunner_RejectsEmptySnapshot(t *testing.T) {
	runner := newTestRunner(t, "")

	if _, err := runner.Run(context.Background(), nil); err == nil {
		t.Error("expected error for nil snapshot")
	}
	if _, err := runner.Run(context.Background(), &ingestion.RawSnapshot{}); err == nil {
		t.Error("expected error for snapshot without run date")
	}
}

// errProtocolStore fails every insert, for exercising the no-partial-
// outputs guarantee.
type errProtocolStore struct{}

func (errProtocolStore) InsertBulk(context.Context, []*domain.ProtocolRecord) error {
	return errors.New("disk full")
}

func (errProtocolStore) GetByRun(context.Context, string, domain.Ecosystem) ([]*domain.ProtocolRecord, error) {
	return nil, storage.ErrNotFound
}

func (errProtocolStore) GetByCategory(context.Context, string, domain.Ecosystem, domain.Category) ([]*domain.ProtocolRecord, error) {
	return nil, storage.ErrNotFound
}

func TestRunner_NoPartialOutputsOnFailure(t *testing.T) {
	outDir := t.TempDir()
	stores := MemoryStores()
	stores.Protocols = errProtocolStore{}

	runner, err := NewRunner(stores, config.Default(), outDir, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	if _, err := runner.Run(context.Background(), FixtureSnapshot("20250115")); err == nil {
		t.Fatal("expected error from failing store")
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed run left %d files behind", len(entries))
	}
}
