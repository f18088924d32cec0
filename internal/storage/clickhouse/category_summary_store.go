package clickhouse

import (
	"context"
	"fmt"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// CategorySummaryStore implements storage.CategorySummaryStore using ClickHouse.
type CategorySummaryStore struct {
	conn *Conn
}

// NewCategorySummaryStore creates a new CategorySummaryStore.
func NewCategorySummaryStore(conn *Conn) *CategorySummaryStore {
	return &CategorySummaryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CategorySummaryStore = (*CategorySummaryStore)(nil)

// InsertBulk adds multiple summaries. Fails the entire batch on any
// duplicate (run_date, ecosystem, category).
func (s *CategorySummaryStore) InsertBulk(ctx context.Context, summaries []*domain.CategorySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runDate   string
		ecosystem domain.Ecosystem
		category  domain.Category
	}
	seen := make(map[key]struct{}, len(summaries))
	for _, sum := range summaries {
		if sum == nil || sum.RunDate == "" || sum.Ecosystem == "" || sum.Category == "" {
			return storage.ErrInvalidInput
		}
		k := key{sum.RunDate, sum.Ecosystem, sum.Category}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, sum := range summaries {
		exists, err := s.exists(ctx, sum.RunDate, sum.Ecosystem, sum.Category)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO category_summaries (
			run_date, ecosystem, category,
			protocol_count, total_tvl, mean_tvl, mean_growth_score
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sum := range summaries {
		err = batch.Append(
			sum.RunDate, string(sum.Ecosystem), string(sum.Category),
			uint32(sum.ProtocolCount), sum.TotalTVL, sum.MeanTVL, sum.MeanGrowthScore,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all summaries for a run date, ordered by
// ecosystem, total TVL DESC, category ASC.
func (s *CategorySummaryStore) GetByRun(ctx context.Context, runDate string) ([]*domain.CategorySummary, error) {
	query := `
		SELECT run_date, ecosystem, category,
		       protocol_count, total_tvl, mean_tvl, mean_growth_score
		FROM category_summaries
		WHERE run_date = ?
		ORDER BY ecosystem ASC, total_tvl DESC, category ASC
	`

	rows, err := s.conn.Query(ctx, query, runDate)
	if err != nil {
		return nil, fmt.Errorf("query category summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.CategorySummary
	for rows.Next() {
		var (
			sum       domain.CategorySummary
			ecosystem string
			category  string
			count     uint32
		)
		err := rows.Scan(
			&sum.RunDate, &ecosystem, &category,
			&count, &sum.TotalTVL, &sum.MeanTVL, &sum.MeanGrowthScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category summary: %w", err)
		}
		sum.Ecosystem = domain.Ecosystem(ecosystem)
		sum.Category = domain.Category(category)
		sum.ProtocolCount = int(count)
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category summaries: %w", err)
	}
	return summaries, nil
}

// exists checks whether a summary for (run_date, ecosystem, category)
// is already stored.
func (s *CategorySummaryStore) exists(ctx context.Context, runDate string, eco domain.Ecosystem, category domain.Category) (bool, error) {
	query := `SELECT count() FROM category_summaries WHERE run_date = ? AND ecosystem = ? AND category = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runDate, string(eco), string(category)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
