package storage

import (
	"context"
	"time"

	"sui-aptos-lab/internal/domain"
)

// ProtocolRecordStore provides access to cleaned protocol snapshots.
type ProtocolRecordStore interface {
	// InsertBulk adds multiple records atomically. Fails the entire batch
	// on any duplicate (run_date, ecosystem, slug).
	InsertBulk(ctx context.Context, records []*domain.ProtocolRecord) error

	// GetByRun retrieves all records for one (run_date, ecosystem),
	// ordered by TVL DESC, slug ASC.
	GetByRun(ctx context.Context, runDate string, eco domain.Ecosystem) ([]*domain.ProtocolRecord, error)

	// GetByCategory retrieves records for one (run_date, ecosystem, category),
	// ordered by TVL DESC, slug ASC.
	GetByCategory(ctx context.Context, runDate string, eco domain.Ecosystem, category domain.Category) ([]*domain.ProtocolRecord, error)
}

// PricePointStore provides access to cleaned daily price points.
type PricePointStore interface {
	// InsertBulk adds multiple points. Fails the entire batch on any
	// duplicate (ecosystem, date).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByEcosystem retrieves all points for an ecosystem, ordered by date ASC.
	GetByEcosystem(ctx context.Context, eco domain.Ecosystem) ([]*domain.PricePoint, error)

	// GetByDateRange retrieves points within [start, end] (inclusive),
	// ordered by date ASC.
	GetByDateRange(ctx context.Context, eco domain.Ecosystem, start, end time.Time) ([]*domain.PricePoint, error)
}

// CategorySummaryStore provides access to derived category aggregates.
type CategorySummaryStore interface {
	// InsertBulk adds multiple summaries. Fails the entire batch on any
	// duplicate (run_date, ecosystem, category).
	InsertBulk(ctx context.Context, summaries []*domain.CategorySummary) error

	// GetByRun retrieves all summaries for a run date, ordered by
	// ecosystem, total TVL DESC, category ASC.
	GetByRun(ctx context.Context, runDate string) ([]*domain.CategorySummary, error)
}

// CompositeScoreStore provides access to final scoring results.
type CompositeScoreStore interface {
	// Insert adds a new score. Returns ErrDuplicateKey if the run date
	// already has a score.
	Insert(ctx context.Context, score *domain.CompositeScore) error

	// GetByRun retrieves the score for a run date. Returns ErrNotFound
	// if not exists.
	GetByRun(ctx context.Context, runDate string) (*domain.CompositeScore, error)

	// GetAll retrieves all scores, ordered by run date ASC.
	GetAll(ctx context.Context) ([]*domain.CompositeScore, error)
}
