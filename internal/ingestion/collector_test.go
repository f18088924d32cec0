package ingestion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sui-aptos-lab/internal/domain"
)

type stubSupply struct {
	err error
}

func (s *stubSupply) Supply(_ context.Context, eco domain.Ecosystem) (*domain.SupplyInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SupplyInfo{Ecosystem: eco, MarketCap: 10e9, FDV: 20e9}, nil
}

// llamaTestServer serves minimal valid responses for every endpoint the
// collector touches.
func llamaTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v2/chains":
			fmt.Fprint(w, `[{"name": "Sui", "tvl": 1500000000}, {"name": "Aptos", "tvl": 900000000}]`)
		case r.URL.Path == "/protocols":
			fmt.Fprint(w, `[
				{"name": "Cetus", "slug": "cetus", "category": "Dexes", "chains": ["Sui"], "tvl": 180000000},
				{"name": "Thala", "slug": "thala", "category": "Dexes", "chains": ["Aptos"], "tvl": 120000000}
			]`)
		case r.URL.Path == "/chart/coingecko:sui" || r.URL.Path == "/chart/coingecko:aptos":
			fmt.Fprint(w, `{"coins": {"coingecko:sui": {"prices": [{"timestamp": 1736899200, "price": 4.05}]},
				"coingecko:aptos": {"prices": [{"timestamp": 1736899200, "price": 6.0}]}}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func fixedRunClock() time.Time {
	return time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
}

func TestCollector_Collect(t *testing.T) {
	server := llamaTestServer(t)
	defer server.Close()

	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}

	llama := NewLlamaClient(WithBaseURL(server.URL), WithCoinsBaseURL(server.URL))
	collector := NewCollector(llama, &stubSupply{}, store, zerolog.Nop()).WithClock(fixedRunClock)

	snap, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if snap.RunDate != "20250115" {
		t.Errorf("run date = %q", snap.RunDate)
	}
	if snap.ChainTVL[domain.EcosystemSui] != 1.5e9 {
		t.Errorf("chain tvl = %v", snap.ChainTVL)
	}
	if len(snap.Protocols[domain.EcosystemSui]) != 1 || len(snap.Protocols[domain.EcosystemAptos]) != 1 {
		t.Errorf("protocols = %+v", snap.Protocols)
	}
	if len(snap.Prices[domain.EcosystemSui]) != 1 || snap.Prices[domain.EcosystemSui][0].Price != 4.05 {
		t.Errorf("sui prices = %+v", snap.Prices[domain.EcosystemSui])
	}
	if snap.Supply[domain.EcosystemAptos] == nil || snap.Supply[domain.EcosystemAptos].MarketCap != 10e9 {
		t.Errorf("supply = %+v", snap.Supply)
	}

	// Snapshot must be persisted under its run date.
	if _, err := store.Load("20250115"); err != nil {
		t.Errorf("snapshot not persisted: %v", err)
	}
}

func TestCollector_SupplyFailureTolerated(t *testing.T) {
	server := llamaTestServer(t)
	defer server.Close()

	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}

	llama := NewLlamaClient(WithBaseURL(server.URL), WithCoinsBaseURL(server.URL))
	supply := &stubSupply{err: errors.New("rate limited")}
	collector := NewCollector(llama, supply, store, zerolog.Nop()).WithClock(fixedRunClock)

	snap, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect with failing supply: %v", err)
	}
	if len(snap.Supply) != 0 {
		t.Errorf("supply should be empty, got %+v", snap.Supply)
	}
	if len(snap.Protocols[domain.EcosystemSui]) == 0 {
		t.Errorf("protocols missing despite supply-only failure")
	}
}

func TestCollector_FallsBackToLocalSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	if err := store.Save(testSnapshot("20250110")); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	llama := NewLlamaClient(
		WithBaseURL(server.URL),
		WithCoinsBaseURL(server.URL),
		WithMaxRetries(1),
		WithRetryDelay(time.Millisecond),
	)
	collector := NewCollector(llama, &stubSupply{}, store, zerolog.Nop()).WithClock(fixedRunClock)

	snap, err := collector.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect fallback: %v", err)
	}
	if snap.RunDate != "20250110" {
		t.Errorf("fallback run date = %q, want 20250110", snap.RunDate)
	}
}

func TestCollector_NoFallbackAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store, err := NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}

	llama := NewLlamaClient(
		WithBaseURL(server.URL),
		WithCoinsBaseURL(server.URL),
		WithMaxRetries(1),
		WithRetryDelay(time.Millisecond),
	)
	collector := NewCollector(llama, &stubSupply{}, store, zerolog.Nop()).WithClock(fixedRunClock)

	if _, err := collector.Collect(context.Background()); err == nil {
		t.Fatal("expected error when fetch fails and no snapshot exists")
	}
}
