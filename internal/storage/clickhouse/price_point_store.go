package clickhouse

import (
	"context"
	"fmt"
	"time"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// PricePointStore implements storage.PricePointStore using ClickHouse.
type PricePointStore struct {
	conn *Conn
}

// NewPricePointStore creates a new PricePointStore.
func NewPricePointStore(conn *Conn) *PricePointStore {
	return &PricePointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PricePointStore = (*PricePointStore)(nil)

// InsertBulk adds multiple points. Fails the entire batch on any
// duplicate (ecosystem, date).
func (s *PricePointStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		ecosystem domain.Ecosystem
		date      string
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.Ecosystem == "" || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := key{p.Ecosystem, p.Date.UTC().Format(domain.PriceDateLayout)}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.Ecosystem, p.Date)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_points (
			ecosystem, date, price, market_cap, volume_24h,
			change_1d, change_7d, change_30d,
			ma_7, ma_30, volatility_30, cumulative_return
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			string(p.Ecosystem), p.Date.UTC(), p.Price, p.MarketCap, p.Volume24h,
			p.Change1d, p.Change7d, p.Change30d,
			p.MA7, p.MA30, p.Volatility30, p.CumulativeReturn,
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

// GetByEcosystem retrieves all points for an ecosystem, ordered by date ASC.
func (s *PricePointStore) GetByEcosystem(ctx context.Context, eco domain.Ecosystem) ([]*domain.PricePoint, error) {
	query := `
		SELECT ecosystem, date, price, market_cap, volume_24h,
		       change_1d, change_7d, change_30d,
		       ma_7, ma_30, volatility_30, cumulative_return
		FROM price_points
		WHERE ecosystem = ?
		ORDER BY date ASC
	`
	return s.query(ctx, query, string(eco))
}

// GetByDateRange retrieves points within [start, end] (inclusive),
// ordered by date ASC.
func (s *PricePointStore) GetByDateRange(ctx context.Context, eco domain.Ecosystem, start, end time.Time) ([]*domain.PricePoint, error) {
	query := `
		SELECT ecosystem, date, price, market_cap, volume_24h,
		       change_1d, change_7d, change_30d,
		       ma_7, ma_30, volatility_30, cumulative_return
		FROM price_points
		WHERE ecosystem = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	return s.query(ctx, query, string(eco), start.UTC(), end.UTC())
}

// exists checks whether a point for (ecosystem, date) is already stored.
func (s *PricePointStore) exists(ctx context.Context, eco domain.Ecosystem, date time.Time) (bool, error) {
	query := `SELECT count() FROM price_points WHERE ecosystem = ? AND date = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, string(eco), date.UTC()).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// query runs a SELECT and scans all rows into price points.
func (s *PricePointStore) query(ctx context.Context, query string, args ...any) ([]*domain.PricePoint, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query price points: %w", err)
	}
	defer rows.Close()

	var points []*domain.PricePoint
	for rows.Next() {
		var (
			p         domain.PricePoint
			ecosystem string
		)
		err := rows.Scan(
			&ecosystem, &p.Date, &p.Price, &p.MarketCap, &p.Volume24h,
			&p.Change1d, &p.Change7d, &p.Change30d,
			&p.MA7, &p.MA30, &p.Volatility30, &p.CumulativeReturn,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		p.Ecosystem = domain.Ecosystem(ecosystem)
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price points: %w", err)
	}
	return points, nil
}
