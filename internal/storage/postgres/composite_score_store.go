package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"sui-aptos-lab/internal/domain"
	"sui-aptos-lab/internal/storage"
)

// CompositeScoreStore implements storage.CompositeScoreStore using PostgreSQL.
type CompositeScoreStore struct {
	pool *Pool
}

// NewCompositeScoreStore creates a new CompositeScoreStore.
func NewCompositeScoreStore(pool *Pool) *CompositeScoreStore {
	return &CompositeScoreStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CompositeScoreStore = (*CompositeScoreStore)(nil)

// Insert adds a new score. Returns ErrDuplicateKey if the run date
// already has a score.
func (s *CompositeScoreStore) Insert(ctx context.Context, score *domain.CompositeScore) error {
	if score == nil || score.RunDate == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO composite_scores (
			run_date, sui_score, aptos_score,
			action, target, confidence,
			used_dimensions, partial_metrics
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		score.RunDate,
		score.Scores[domain.EcosystemSui],
		score.Scores[domain.EcosystemAptos],
		string(score.Recommendation.Action),
		string(score.Recommendation.Target),
		string(score.Confidence),
		score.UsedDimensions,
		score.PartialMetrics,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert composite score: %w", err)
	}
	return nil
}

// GetByRun retrieves the score for a run date. Returns ErrNotFound
// if not exists.
func (s *CompositeScoreStore) GetByRun(ctx context.Context, runDate string) (*domain.CompositeScore, error) {
	query := `
		SELECT run_date, sui_score, aptos_score, action, target, confidence,
		       used_dimensions, partial_metrics
		FROM composite_scores
		WHERE run_date = $1
	`

	row := s.pool.QueryRow(ctx, query, runDate)
	score, err := scanCompositeScore(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get composite score by run: %w", err)
	}
	return score, nil
}

// GetAll retrieves all scores, ordered by run date ASC.
func (s *CompositeScoreStore) GetAll(ctx context.Context) ([]*domain.CompositeScore, error) {
	query := `
		SELECT run_date, sui_score, aptos_score, action, target, confidence,
		       used_dimensions, partial_metrics
		FROM composite_scores
		ORDER BY run_date ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all composite scores: %w", err)
	}
	defer rows.Close()

	var scores []*domain.CompositeScore
	for rows.Next() {
		score, err := scanCompositeScore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan composite score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate composite scores: %w", err)
	}
	return scores, nil
}

// scanCompositeScore scans one row into a composite score.
func scanCompositeScore(row pgx.Row) (*domain.CompositeScore, error) {
	var (
		score      domain.CompositeScore
		suiScore   float64
		aptosScore float64
		action     string
		target     string
		confidence string
	)
	err := row.Scan(
		&score.RunDate,
		&suiScore,
		&aptosScore,
		&action,
		&target,
		&confidence,
		&score.UsedDimensions,
		&score.PartialMetrics,
	)
	if err != nil {
		return nil, err
	}

	score.Scores = map[domain.Ecosystem]float64{
		domain.EcosystemSui:   suiScore,
		domain.EcosystemAptos: aptosScore,
	}
	score.Recommendation = domain.Recommendation{
		Action: domain.RecommendationAction(action),
		Target: domain.Ecosystem(target),
	}
	score.Confidence = domain.Confidence(confidence)
	return &score, nil
}
