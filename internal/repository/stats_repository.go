package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/rs/zerolog"
)

type StatsRepository interface {
	// RecordAttempt folds one finalized attempt into the test's rollup.
	RecordAttempt(ctx context.Context, testID string, percentage float64, at time.Time) error
	GetByTestID(ctx context.Context, testID string) (*models.TestStatistics, error)
}

type statsRepository struct {
	*PostgresRepository
}

func NewStatsRepository(db *sql.DB, logger zerolog.Logger) StatsRepository {
	return &statsRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *statsRepository) RecordAttempt(ctx context.Context, testID string, percentage float64, at time.Time) error {
	// Running average update keeps the row O(1) regardless of attempt count.
	query := `
		INSERT INTO test_statistics (test_id, attempts, avg_percentage, best_percentage, updated_at)
		VALUES ($1, 1, $2, $2, $3)
		ON CONFLICT (test_id) DO UPDATE SET
			attempts = test_statistics.attempts + 1,
			avg_percentage = (test_statistics.avg_percentage * test_statistics.attempts + $2) / (test_statistics.attempts + 1),
			best_percentage = GREATEST(test_statistics.best_percentage, $2),
			updated_at = $3
	`

	_, err := r.db.ExecContext(ctx, query, testID, percentage, at)
	return err
}

func (r *statsRepository) GetByTestID(ctx context.Context, testID string) (*models.TestStatistics, error) {
	query := `
		SELECT test_id, attempts, avg_percentage, best_percentage, updated_at
		FROM test_statistics
		WHERE test_id = $1
	`

	stats := &models.TestStatistics{}
	err := r.db.QueryRowContext(ctx, query, testID).Scan(
		&stats.TestID,
		&stats.Attempts,
		&stats.AvgPercentage,
		&stats.BestPercentage,
		&stats.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return stats, err
}
