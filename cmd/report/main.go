// Command report regenerates the investment summary for a stored run
// without re-cleaning or re-scoring: the composite score and cleaned
// data are read back from the stores and only the report is rebuilt.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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
	"sui-aptos-lab/internal/storage/clickhouse"
	"sui-aptos-lab/internal/storage/postgres"
)

func main() {
	runDate := flag.String("run-date", "", "Run date to report on (YYYYMMDD); latest stored when empty")
	rawDir := flag.String("raw-dir", "raw_data", "Raw snapshot directory, used for supply data when present")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	outPath := flag.String("out", "", "Markdown output path; stdout when empty")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("component", "report").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *postgresDSN == "" || *clickhouseDSN == "" {
		log.Fatal().Msg("both -postgres-dsn and -clickhouse-dsn are required")
	}

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	conn, err := clickhouse.NewConn(ctx, *clickhouseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect clickhouse")
	}
	defer conn.Close()

	scores := postgres.NewCompositeScoreStore(pool)
	protocols := postgres.NewProtocolRecordStore(pool)
	prices := clickhouse.NewPricePointStore(conn)
	categories := clickhouse.NewCategorySummaryStore(conn)

	score, err := resolveScore(ctx, scores, *runDate)
	if err != nil {
		log.Fatal().Err(err).Msg("load composite score")
	}

	records := make(map[domain.Ecosystem][]*domain.ProtocolRecord, 2)
	series := make(map[domain.Ecosystem]*domain.PriceSeries, 2)
	for _, eco := range domain.Ecosystems() {
		recs, err := protocols.GetByRun(ctx, score.RunDate, eco)
		if err != nil {
			log.Fatal().Err(err).Str("ecosystem", string(eco)).Msg("load protocol records")
		}
		records[eco] = recs

		points, err := prices.GetByEcosystem(ctx, eco)
		if err != nil {
			log.Fatal().Err(err).Str("ecosystem", string(eco)).Msg("load price points")
		}
		values := make([]domain.PricePoint, len(points))
		for i, p := range points {
			values[i] = *p
		}
		s, err := domain.NewPriceSeries(eco, values)
		if err != nil {
			log.Fatal().Err(err).Str("ecosystem", string(eco)).Msg("rebuild price series")
		}
		series[eco] = s
	}

	summaries, err := categories.GetByRun(ctx, score.RunDate)
	if err != nil {
		log.Fatal().Err(err).Msg("load category summaries")
	}

	supply := loadSupply(*rawDir, score.RunDate)
	metrics := rebuildMetrics(records, series, supply)

	corr := cleaning.DailyReturnCorrelation(series[domain.EcosystemSui], series[domain.EcosystemAptos])
	concentration := make(map[domain.Ecosystem]domain.ConcentrationStats, 2)
	sizes := make(map[domain.Ecosystem][]domain.SizeBucket, 2)
	for _, eco := range domain.Ecosystems() {
		concentration[eco] = aggregation.Concentration(records[eco], eco)
		sizes[eco] = aggregation.SizeDistribution(records[eco])
	}

	report := reporting.NewGenerator().Generate(reporting.Input{
		RunDate:           score.RunDate,
		Score:             score,
		Metrics:           metrics,
		CategorySummaries: summaries,
		Concentration:     concentration,
		SizeDistribution:  sizes,
		DailyCorrelation:  corr,
		CorrelationLabel:  cleaning.CorrelationStrength(corr),
	})

	md := reporting.RenderMarkdown(report)
	if *outPath == "" {
		fmt.Print(md)
		return
	}
	if err := os.WriteFile(*outPath, []byte(md), 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *outPath).Msg("write report")
	}
	log.Info().Str("path", *outPath).Str("run_date", score.RunDate).Msg("report written")
}

// resolveScore loads the score for the run date, or the most recent one.
func resolveScore(ctx context.Context, store storage.CompositeScoreStore, runDate string) (*domain.CompositeScore, error) {
	if runDate != "" {
		return store.GetByRun(ctx, runDate)
	}
	all, err := store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, storage.ErrNotFound
	}
	return all[len(all)-1], nil
}

// loadSupply pulls supply data from the run's raw snapshot when it is
// still on disk; supply is not persisted in the stores.
func loadSupply(rawDir, runDate string) map[domain.Ecosystem]*domain.SupplyInfo {
	store, err := ingestion.NewSnapshotStore(rawDir)
	if err != nil {
		return nil
	}
	snap, err := store.Load(runDate)
	if err != nil {
		return nil
	}
	return snap.Supply
}

// rebuildMetrics recomputes the comparison metrics from stored data so
// the report's key metrics table matches the original run.
func rebuildMetrics(
	records map[domain.Ecosystem][]*domain.ProtocolRecord,
	series map[domain.Ecosystem]*domain.PriceSeries,
	supply map[domain.Ecosystem]*domain.SupplyInfo,
) []domain.ComparisonMetric {
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

	return comparison.Compare(dims[domain.EcosystemSui], dims[domain.EcosystemAptos], config.Default().Epsilon)
}
