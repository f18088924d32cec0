// Command pipeline runs the full cleaning, comparison, scoring and
// reporting pass over a dated raw snapshot, persisting cleaned data to
// PostgreSQL and ClickHouse (or in-memory stores) and writing dated
// output files.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"sui-aptos-lab/internal/config"
	"sui-aptos-lab/internal/ingestion"
	"sui-aptos-lab/internal/pipeline"
	"sui-aptos-lab/internal/storage/clickhouse"
	"sui-aptos-lab/internal/storage/migrations"
	"sui-aptos-lab/internal/storage/postgres"
)

func main() {
	rawDir := flag.String("raw-dir", "raw_data", "Directory holding dated raw snapshots")
	runDate := flag.String("run-date", "", "Snapshot run date (YYYYMMDD); latest when empty")
	outDir := flag.String("out-dir", "processed_data", "Directory for dated output files")
	configPath := flag.String("config", "", "Scoring config YAML; built-in defaults when empty")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory stores instead of databases")
	fixture := flag.Bool("fixture", false, "Run over a synthetic fixture snapshot instead of raw data")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("component", "pipeline").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("load scoring config")
		}
		cfg = loaded
	}

	stores, cleanupStores := buildStores(ctx, log, *postgresDSN, *clickhouseDSN, *useMemory)
	defer cleanupStores()

	runner, err := pipeline.NewRunner(stores, cfg, *outDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline runner")
	}

	snap, err := loadSnapshot(*rawDir, *runDate, *fixture)
	if err != nil {
		log.Fatal().Err(err).Msg("load snapshot")
	}

	result, err := runner.Run(ctx, snap)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline run failed")
	}

	log.Info().
		Str("run_date", result.RunDate).
		Str("recommendation", result.Score.Recommendation.String()).
		Str("confidence", string(result.Score.Confidence)).
		Strs("outputs", result.OutputFiles).
		Msg("pipeline run complete")
}

// loadSnapshot resolves the snapshot to run over: an explicit run date,
// the latest on disk, or a synthetic fixture.
func loadSnapshot(rawDir, runDate string, fixture bool) (*ingestion.RawSnapshot, error) {
	if fixture {
		if runDate == "" {
			runDate = "20250115"
		}
		return pipeline.FixtureSnapshot(runDate), nil
	}

	store, err := ingestion.NewSnapshotStore(rawDir)
	if err != nil {
		return nil, err
	}
	if runDate != "" {
		return store.Load(runDate)
	}
	snap, err := store.Latest()
	if errors.Is(err, ingestion.ErrNoSnapshot) {
		return nil, errors.New("no snapshots on disk; run the ingest command first")
	}
	return snap, err
}

// buildStores wires database-backed stores when DSNs are configured,
// in-memory stores otherwise. The returned cleanup closes connections.
func buildStores(ctx context.Context, log zerolog.Logger, postgresDSN, clickhouseDSN string, useMemory bool) (pipeline.Stores, func()) {
	if useMemory || postgresDSN == "" || clickhouseDSN == "" {
		log.Info().Msg("using in-memory stores")
		return pipeline.MemoryStores(), func() {}
	}

	pool, err := postgres.NewPool(ctx, postgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("postgres migrations")
	}

	conn, err := clickhouse.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("connect clickhouse")
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		pool.Close()
		conn.Close()
		log.Fatal().Err(err).Msg("clickhouse migrations")
	}

	stores := pipeline.Stores{
		Protocols:  postgres.NewProtocolRecordStore(pool),
		Prices:     clickhouse.NewPricePointStore(conn),
		Categories: clickhouse.NewCategorySummaryStore(conn),
		Scores:     postgres.NewCompositeScoreStore(pool),
	}
	return stores, func() {
		pool.Close()
		conn.Close()
	}
}
