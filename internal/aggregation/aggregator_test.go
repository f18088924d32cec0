package aggregation

import (
	"math"
	"testing"

	"sui-aptos-lab/internal/domain"
)

func record(slug string, cat domain.Category, tvl, growth float64) *domain.ProtocolRecord {
	return &domain.ProtocolRecord{
		Slug:        slug,
		Name:        slug,
		Ecosystem:   domain.EcosystemSui,
		Category:    cat,
		TVL:         tvl,
		GrowthScore: growth,
		RunDate:     "20250115",
	}
}

func TestAggregate(t *testing.T) {
	records := []*domain.ProtocolRecord{
		record("a", domain.CategoryDEX, 100e6, 2.0),
		record("b", domain.CategoryDEX, 300e6, 4.0),
		record("c", domain.CategoryLending, 50e6, -1.0),
	}

	summaries := Aggregate(records, domain.EcosystemSui, "20250115")
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}

	dex := summaries[0]
	if dex.Category != domain.CategoryDEX {
		t.Fatalf("first summary category = %q, want DEX (TVL desc)", dex.Category)
	}
	if dex.ProtocolCount != 2 {
		t.Errorf("DEX count = %d, want 2", dex.ProtocolCount)
	}
	if dex.TotalTVL != 400e6 {
		t.Errorf("DEX total TVL = %v, want 4e8", dex.TotalTVL)
	}
	if dex.MeanTVL != 200e6 {
		t.Errorf("DEX mean TVL = %v, want 2e8", dex.MeanTVL)
	}
	if math.Abs(dex.MeanGrowthScore-3.0) > 1e-12 {
		t.Errorf("DEX mean growth = %v, want 3", dex.MeanGrowthScore)
	}
}

func TestAggregate_Total(t *testing.T) {
	records := []*domain.ProtocolRecord{
		record("a", domain.CategoryDEX, 100e6, 0),
		record("b", domain.CategoryOther, 10e6, 0),
		record("c", domain.CategoryOther, 20e6, 0),
		record("d", domain.CategoryLending, 5e6, 0),
		record("e", domain.CategoryNFT, 1e6, 0),
	}

	summaries := Aggregate(records, domain.EcosystemSui, "20250115")

	// Per-category counts must add up to the input size: no record is
	// ever silently dropped.
	total := 0
	for _, s := range summaries {
		total += s.ProtocolCount
	}
	if total != len(records) {
		t.Errorf("summary counts sum to %d, want %d", total, len(records))
	}
}

func TestAggregate_TieBreakByName(t *testing.T) {
	records := []*domain.ProtocolRecord{
		record("a", domain.CategoryLending, 100e6, 0),
		record("b", domain.CategoryDEX, 100e6, 0),
	}

	summaries := Aggregate(records, domain.EcosystemSui, "20250115")
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	// Equal TVL: category name ascending.
	if summaries[0].Category != domain.CategoryDEX {
		t.Errorf("first = %q, want DEX", summaries[0].Category)
	}
	if summaries[1].Category != domain.CategoryLending {
		t.Errorf("second = %q, want Lending", summaries[1].Category)
	}
}

func TestAggregate_Empty(t *testing.T) {
	summaries := Aggregate(nil, domain.EcosystemSui, "20250115")
	if len(summaries) != 0 {
		t.Errorf("got %d summaries, want 0", len(summaries))
	}
}

func TestConcentration(t *testing.T) {
	records := []*domain.ProtocolRecord{
		record("big", domain.CategoryDEX, 500e6, 0),
		record("mid", domain.CategoryDEX, 300e6, 0),
		record("small", domain.CategoryDEX, 200e6, 0),
	}

	c := Concentration(records, domain.EcosystemSui)

	if math.Abs(c.Top1Share-50.0) > 1e-9 {
		t.Errorf("Top1Share = %v, want 50", c.Top1Share)
	}
	// Fewer than 5 protocols: top-5 covers everything.
	if math.Abs(c.Top5Share-100.0) > 1e-9 {
		t.Errorf("Top5Share = %v, want 100", c.Top5Share)
	}

	wantHHI := 0.5*0.5 + 0.3*0.3 + 0.2*0.2
	if math.Abs(c.Herfindahl-wantHHI) > 1e-12 {
		t.Errorf("Herfindahl = %v, want %v", c.Herfindahl, wantHHI)
	}
}

func TestConcentration_Empty(t *testing.T) {
	c := Concentration(nil, domain.EcosystemSui)
	if c.Top1Share != 0 || c.Herfindahl != 0 {
		t.Errorf("empty input should produce zero stats, got %+v", c)
	}
}
