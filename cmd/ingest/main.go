// Command ingest fetches one day's raw Sui and Aptos data (chain TVLs,
// protocols, price history, token supply) and saves it as a dated
// snapshot under the raw data directory. With -live it additionally
// streams Binance ticker prices until interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"sui-aptos-lab/internal/ingestion"
)

func main() {
	rawDir := flag.String("raw-dir", "raw_data", "Directory for dated raw snapshots")
	days := flag.Int("days", ingestion.DefaultHistoryDays, "Days of price history to fetch")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall fetch timeout")
	live := flag.Bool("live", false, "Stream live Binance ticker prices after the snapshot")
	noSupply := flag.Bool("no-supply", false, "Skip the CoinGecko supply fetch")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("component", "ingest").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snapshots, err := ingestion.NewSnapshotStore(*rawDir)
	if err != nil {
		log.Fatal().Err(err).Msg("snapshot store")
	}

	var supply ingestion.SupplySource
	if !*noSupply {
		supply = ingestion.NewGeckoClient()
	}

	llama := ingestion.NewLlamaClient()
	collector := ingestion.NewCollector(llama, supply, snapshots, log).WithHistoryDays(*days)

	fetchCtx, cancel := context.WithTimeout(ctx, *timeout)
	snap, err := collector.Collect(fetchCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("collect failed")
	}
	log.Info().Str("run_date", snap.RunDate).Msg("raw snapshot ready")

	if !*live {
		return
	}

	source, err := ingestion.NewTickerSource(ctx, "", nil)
	if err != nil {
		log.Fatal().Err(err).Msg("ticker source")
	}
	defer source.Close()

	log.Info().Msg("streaming live ticker, ctrl-c to stop")
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-source.Ticks():
			if !ok {
				return
			}
			log.Info().
				Str("ecosystem", string(tick.Ecosystem)).
				Float64("price_usd", tick.Price).
				Float64("volume_24h_usd", tick.Volume24h).
				Time("at", tick.Time).
				Msg("tick")
		}
	}
}
