// Package pipeline wires the cleaning, aggregation, comparison, scoring
// and reporting stages into one run over a dated raw snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sui-aptos-lab/internal/aggregation"
	"sui-aptos-lab/internal/cleaning"
	"sui-aptos-lab/internal/comparison"
	"sui-aptos-lab/internal/config"
	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/ingestion"
	"sui-aptos-lab/internal/reporting"
	"sui-aptos-lab/internal/scoring"
	"sui-aptos-lab/internal/storage"
)

// Stores groups the persistence interfaces one run writes to. Memory
// implementations satisfy all four for fixture runs and tests.
type Stores struct {
	Protocols  storage.ProtocolRecordStore
	Prices     storage.PricePointStore
	Categories storage.CategorySummaryStore
	Scores     storage.CompositeScoreStore
}

// Result is everything one run produced.
type Result struct {
	RunDate string
	Score   *domain.CompositeScore
	Report  *reporting.Report
	// OutputFiles lists the dated files written, empty when the runner
	// has no output directory.
	OutputFiles []string
}

// Runner executes the full pipeline over a raw snapshot. Reruns over
// the same snapshot are idempotent: stores reject duplicates and the
// runner treats those rejections as already-done work.
type Runner struct {
	stores Stores
	scorer *scoring.Scorer
	cfg    *config.ScoringConfig
	outDir string // empty disables file outputs
	log    zerolog.Logger
	now    func() time.Time
}

// NewRunner creates a runner. The scoring config is validated here so a
// bad weight table fails before any data is touched.
func NewRunner(stores Stores, cfg *config.ScoringConfig, outDir string, log zerolog.Logger) (*Runner, error) {
	scorer, err := scoring.NewScorer(cfg)
	if err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Runner{
		stores: stores,
		scorer: scorer,
		cfg:    cfg,
		outDir: outDir,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the report clock. Used by tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run cleans, stores, compares, scores and reports one snapshot.
// Nothing is written to the output directory unless every stage
// succeeds.
func (r *Runner) Run(ctx context.Context, snap *ingestion.RawSnapshot) (*Result, error) {
	if snap == nil || snap.RunDate == "" {
		return nil, fmt.Errorf("%w: snapshot missing run date", storage.ErrInvalidInput)
	}
	runDate := snap.RunDate
	r.log.Info().Str("run_date", runDate).Msg("pipeline run started")

	records := make(map[domain.Ecosystem][]*domain.ProtocolRecord, 2)
	series := make(map[domain.Ecosystem]*domain.PriceSeries, 2)
	summaries := make(map[domain.Ecosystem][]*domain.CategorySummary, 2)

	for _, eco := range domain.Ecosystems() {
		recs := cleaning.CleanProtocols(snap.Protocols[eco], eco, runDate)
		records[eco] = recs
		r.log.Info().Str("ecosystem", string(eco)).
			Int("raw", len(snap.Protocols[eco])).
			Int("clean", len(recs)).
			Msg("protocols cleaned")

		s, err := cleaning.CleanPrices(snap.Prices[eco], eco)
		if err != nil {
			return nil, fmt.Errorf("clean prices for %s: %w", eco, err)
		}
		series[eco] = s

		summaries[eco] = aggregation.Aggregate(recs, eco, runDate)
	}

	if err := r.persist(ctx, runDate, records, series, summaries); err != nil {
		return nil, err
	}

	metrics, err := r.compare(records, series, snap.Supply)
	if err != nil {
		return nil, err
	}

	score, err := r.scorer.Score(metrics, runDate)
	if err != nil {
		return nil, fmt.Errorf("score run %s: %w", runDate, err)
	}
	r.log.Info().
		Float64("sui", score.Scores[domain.EcosystemSui]).
		Float64("aptos", score.Scores[domain.EcosystemAptos]).
		Str("recommendation", score.Recommendation.String()).
		Str("confidence", string(score.Confidence)).
		Msg("composite score computed")

	if err := r.insertTolerant(r.stores.Scores.Insert(ctx, score), "composite score"); err != nil {
		return nil, err
	}

	corr := cleaning.DailyReturnCorrelation(series[domain.EcosystemSui], series[domain.EcosystemAptos])
	concentration := make(map[domain.Ecosystem]domain.ConcentrationStats, 2)
	sizes := make(map[domain.Ecosystem][]domain.SizeBucket, 2)
	allSummaries := make([]*domain.CategorySummary, 0)
	for _, eco := range domain.Ecosystems() {
		concentration[eco] = aggregation.Concentration(records[eco], eco)
		sizes[eco] = aggregation.SizeDistribution(records[eco])
		allSummaries = append(allSummaries, summaries[eco]...)
	}

	report := reporting.NewGenerator().WithClock(r.now).Generate(reporting.Input{
		RunDate:           runDate,
		Score:             score,
		Metrics:           metrics,
		CategorySummaries: allSummaries,
		Concentration:     concentration,
		SizeDistribution:  sizes,
		DailyCorrelation:  corr,
		CorrelationLabel:  cleaning.CorrelationStrength(corr),
	})

	result := &Result{RunDate: runDate, Score: score, Report: report}

	if r.outDir != "" {
		files, err := r.writeOutputs(runDate, records, series, allSummaries, metrics, score, report)
		if err != nil {
			return nil, err
		}
		result.OutputFiles = files
	}

	r.log.Info().Str("run_date", runDate).Msg("pipeline run finished")
	return result, nil
}

// persist stores cleaned records, price points and category summaries.
// Duplicate-key rejections mean the run date was already stored; the
// run continues so reports can be regenerated.
func (r *Runner) persist(
	ctx context.Context,
	runDate string,
	records map[domain.Ecosystem][]*domain.ProtocolRecord,
	series map[domain.Ecosystem]*domain.PriceSeries,
	summaries map[domain.Ecosystem][]*domain.CategorySummary,
) error {
	for _, eco := range domain.Ecosystems() {
		if err := r.insertTolerant(r.stores.Protocols.InsertBulk(ctx, records[eco]), "protocol records"); err != nil {
			return err
		}

		points, err := r.unseenPricePoints(ctx, eco, series[eco])
		if err != nil {
			return err
		}
		if err := r.insertTolerant(r.stores.Prices.InsertBulk(ctx, points), "price points"); err != nil {
			return err
		}

		if err := r.insertTolerant(r.stores.Categories.InsertBulk(ctx, summaries[eco]), "category summaries"); err != nil {
			return err
		}
	}
	return nil
}

// unseenPricePoints drops dates already stored for the ecosystem.
// Consecutive-day snapshots overlap on all but the newest dates, and
// the price store rejects a whole batch on any duplicate; inserting
// the full series would lose the new points along with the old ones.
func (r *Runner) unseenPricePoints(ctx context.Context, eco domain.Ecosystem, s *domain.PriceSeries) ([]*domain.PricePoint, error) {
	stored, err := r.stores.Prices.GetByEcosystem(ctx, eco)
	if err != nil {
		return nil, fmt.Errorf("load stored prices for %s: %w", eco, err)
	}
	seen := make(map[string]struct{}, len(stored))
	for _, p := range stored {
		seen[p.Date.UTC().Format(domain.PriceDateLayout)] = struct{}{}
	}

	points := make([]*domain.PricePoint, 0, len(s.Points))
	for i := range s.Points {
		p := &s.Points[i]
		if _, ok := seen[p.Date.UTC().Format(domain.PriceDateLayout)]; ok {
			continue
		}
		points = append(points, p)
	}
	return points, nil
}

// insertTolerant swallows duplicate-key errors from reruns.
func (r *Runner) insertTolerant(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrDuplicateKey) {
		r.log.Debug().Str("what", what).Msg("already stored, skipping")
		return nil
	}
	return fmt.Errorf("store %s: %w", what, err)
}

// compare builds the per-ecosystem dimension sets, merges in the
// fundamental score, and produces the named comparison metrics.
func (r *Runner) compare(
	records map[domain.Ecosystem][]*domain.ProtocolRecord,
	series map[domain.Ecosystem]*domain.PriceSeries,
	supply map[domain.Ecosystem]*domain.SupplyInfo,
) ([]domain.ComparisonMetric, error) {
	dims := make(map[domain.Ecosystem]map[string]float64, 2)
	inputs := make(map[domain.Ecosystem]scoring.FundamentalInput, 2)

	for _, eco := range domain.Ecosystems() {
		dims[eco] = comparison.BuildDimensions(comparison.EcosystemData{
			Ecosystem: eco,
			Records:   records[eco],
			Prices:    series[eco],
			Supply:    supply[eco],
		})

		ret90, _ := series[eco].ReturnOverDays(90)
		inputs[eco] = scoring.FundamentalInput{Records: records[eco], Return90d: ret90}
	}

	fundamentals := scoring.FundamentalScores(inputs[domain.EcosystemSui], inputs[domain.EcosystemAptos])
	for eco, score := range fundamentals {
		dims[eco][comparison.DimFundamentals] = score
	}

	metrics := comparison.Compare(dims[domain.EcosystemSui], dims[domain.EcosystemAptos], r.cfg.Epsilon)
	if len(metrics) == 0 {
		return nil, fmt.Errorf("no comparison metrics produced")
	}
	return metrics, nil
}
