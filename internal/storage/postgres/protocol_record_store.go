package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// ProtocolRecordStore implements storage.ProtocolRecordStore using PostgreSQL.
type ProtocolRecordStore struct {
	pool *Pool
}

// NewProtocolRecordStore creates a new ProtocolRecordStore.
func NewProtocolRecordStore(pool *Pool) *ProtocolRecordStore {
	return &ProtocolRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProtocolRecordStore = (*ProtocolRecordStore)(nil)

const protocolRecordColumns = `
	slug, name, ecosystem, category, tvl_usd,
	change_1d, change_7d, change_30d, growth_score,
	tvl_rank, growth_rank, outlier, run_date
`

// InsertBulk adds multiple records atomically within a transaction.
// Fails the entire batch on any duplicate (run_date, ecosystem, slug).
func (s *ProtocolRecordStore) InsertBulk(ctx context.Context, records []*domain.ProtocolRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO protocol_records (` + protocolRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, r := range records {
		if r == nil || r.Slug == "" || r.RunDate == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			r.Slug,
			r.Name,
			string(r.Ecosystem),
			string(r.Category),
			r.TVL,
			r.Change1d,
			r.Change7d,
			r.Change30,
			r.GrowthScore,
			r.TVLRank,
			r.GrowthRank,
			r.Outlier,
			r.RunDate,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert protocol record %s: %w", r.Slug, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all records for one (run_date, ecosystem),
// ordered by TVL DESC, slug ASC.
func (s *ProtocolRecordStore) GetByRun(ctx context.Context, runDate string, eco domain.Ecosystem) ([]*domain.ProtocolRecord, error) {
	query := `
		SELECT ` + protocolRecordColumns + `
		FROM protocol_records
		WHERE run_date = $1 AND ecosystem = $2
		ORDER BY tvl_usd DESC, slug ASC
	`

	rows, err := s.pool.Query(ctx, query, runDate, string(eco))
	if err != nil {
		return nil, fmt.Errorf("get records by run: %w", err)
	}
	defer rows.Close()

	return scanProtocolRecords(rows)
}

// GetByCategory retrieves records for one (run_date, ecosystem, category),
// ordered by TVL DESC, slug ASC.
func (s *ProtocolRecordStore) GetByCategory(ctx context.Context, runDate string, eco domain.Ecosystem, category domain.Category) ([]*domain.ProtocolRecord, error) {
	query := `
		SELECT ` + protocolRecordColumns + `
		FROM protocol_records
		WHERE run_date = $1 AND ecosystem = $2 AND category = $3
		ORDER BY tvl_usd DESC, slug ASC
	`

	rows, err := s.pool.Query(ctx, query, runDate, string(eco), string(category))
	if err != nil {
		return nil, fmt.Errorf("get records by category: %w", err)
	}
	defer rows.Close()

	return scanProtocolRecords(rows)
}

// scanProtocolRecords scans all rows into protocol records.
func scanProtocolRecords(rows pgx.Rows) ([]*domain.ProtocolRecord, error) {
	var records []*domain.ProtocolRecord
	for rows.Next() {
		var (
			r         domain.ProtocolRecord
			ecosystem string
			category  string
		)
		err := rows.Scan(
			&r.Slug,
			&r.Name,
			&ecosystem,
			&category,
			&r.TVL,
			&r.Change1d,
			&r.Change7d,
			&r.Change30,
			&r.GrowthScore,
			&r.TVLRank,
			&r.GrowthRank,
			&r.Outlier,
			&r.RunDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan protocol record: %w", err)
		}
		r.Ecosystem = domain.Ecosystem(ecosystem)
		r.Category = domain.Category(category)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate protocol records: %w", err)
	}
	return records, nil
}
