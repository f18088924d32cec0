package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sui-aptos-lab/internal/domain"
)

// DefaultHistoryDays is how much daily price history a collection run
// requests.
const DefaultHistoryDays = 365

// Collector fetches one day's raw data from all sources and persists
// it as a dated snapshot.
type Collector struct {
	llama     *LlamaClient
	supply    SupplySource
	snapshots *SnapshotStore
	days      int
	log       zerolog.Logger
	now       func() time.Time
}

// NewCollector creates a collector over the given sources.
func NewCollector(llama *LlamaClient, supply SupplySource, snapshots *SnapshotStore, log zerolog.Logger) *Collector {
	return &Collector{
		llama:     llama,
		supply:    supply,
		snapshots: snapshots,
		days:      DefaultHistoryDays,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the run-date clock. Used by tests.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

// WithHistoryDays overrides how much price history a run requests.
func (c *Collector) WithHistoryDays(days int) *Collector {
	if days > 0 {
		c.days = days
	}
	return c
}

// Collect fetches chain TVLs, protocols, price history, and supply data
// for both ecosystems, saves the snapshot, and returns it. Protocol and
// price data are required; supply failures degrade to a snapshot
// without supply since downstream scoring tolerates missing dimensions.
// When a live fetch fails entirely, the most recent snapshot on disk is
// returned as a fallback.
func (c *Collector) Collect(ctx context.Context) (*RawSnapshot, error) {
	runDate := c.now().UTC().Format(RunDateLayout)

	snap, err := c.fetch(ctx, runDate)
	if err != nil {
		c.log.Warn().Err(err).Msg("live fetch failed, trying latest local snapshot")
		fallback, loadErr := c.snapshots.Latest()
		if loadErr != nil {
			return nil, fmt.Errorf("fetch failed (%w) and no local snapshot: %w", err, loadErr)
		}
		c.log.Info().Str("run_date", fallback.RunDate).Msg("using local snapshot fallback")
		return fallback, nil
	}

	if err := c.snapshots.Save(snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	c.log.Info().Str("run_date", runDate).Msg("snapshot saved")
	return snap, nil
}

func (c *Collector) fetch(ctx context.Context, runDate string) (*RawSnapshot, error) {
	snap := &RawSnapshot{
		RunDate:   runDate,
		FetchedAt: c.now().UTC(),
		ChainTVL:  make(map[domain.Ecosystem]float64),
		Protocols: make(map[domain.Ecosystem][]domain.RawProtocol),
		Prices:    make(map[domain.Ecosystem][]domain.PricePoint),
		Supply:    make(map[domain.Ecosystem]*domain.SupplyInfo),
	}

	tvls, err := c.llama.ChainTVLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain tvls: %w", err)
	}
	snap.ChainTVL = tvls
	for eco, tvl := range tvls {
		c.log.Info().Str("ecosystem", string(eco)).Float64("tvl_usd", tvl).Msg("chain tvl")
	}

	for _, eco := range domain.Ecosystems() {
		protocols, err := c.llama.Protocols(ctx, eco)
		if err != nil {
			return nil, fmt.Errorf("protocols for %s: %w", eco, err)
		}
		snap.Protocols[eco] = protocols
		c.log.Info().Str("ecosystem", string(eco)).Int("count", len(protocols)).Msg("protocols fetched")

		prices, err := c.llama.History(ctx, eco, c.days)
		if err != nil {
			// Chain TVL history stands in for price when the price
			// API is unavailable.
			c.log.Warn().Err(err).Str("ecosystem", string(eco)).Msg("price history failed, using chain tvl proxy")
			prices, err = c.llama.HistoricalChainTVL(ctx, eco)
			if err != nil {
				return nil, fmt.Errorf("price history for %s: %w", eco, err)
			}
		}
		snap.Prices[eco] = prices

		if c.supply != nil {
			supply, err := c.supply.Supply(ctx, eco)
			if err != nil {
				c.log.Warn().Err(err).Str("ecosystem", string(eco)).Msg("supply fetch failed, continuing without")
				continue
			}
			snap.Supply[eco] = supply
		}
	}

	return snap, nil
}
