package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/rs/zerolog"
)

// ResultRepository reads stored results. Writing happens inside
// AttemptRepository.Finalize so the result and the attempt's final status
// land in one transaction.
type ResultRepository interface {
	GetByID(ctx context.Context, id string) (*models.Result, error)
	GetByAttemptID(ctx context.Context, attemptID string) (*models.Result, error)
}

type resultRepository struct {
	*PostgresRepository
}

func NewResultRepository(db *sql.DB, logger zerolog.Logger) ResultRepository {
	return &resultRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *resultRepository) GetByID(ctx context.Context, id string) (*models.Result, error) {
	query := `
		SELECT id, attempt_id, test_id, student_id, score, total_marks, per_question, submitted_at, created_at
		FROM results
		WHERE id = $1
	`

	return scanResult(r.db.QueryRowContext(ctx, query, id))
}

func (r *resultRepository) GetByAttemptID(ctx context.Context, attemptID string) (*models.Result, error) {
	query := `
		SELECT id, attempt_id, test_id, student_id, score, total_marks, per_question, submitted_at, created_at
		FROM results
		WHERE attempt_id = $1
	`

	return scanResult(r.db.QueryRowContext(ctx, query, attemptID))
}

func scanResult(row *sql.Row) (*models.Result, error) {
	result := &models.Result{}
	var perQuestion []byte

	err := row.Scan(
		&result.ID,
		&result.AttemptID,
		&result.TestID,
		&result.StudentID,
		&result.Score,
		&result.TotalMarks,
		&perQuestion,
		&result.SubmittedAt,
		&result.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(perQuestion, &result.PerQuestion); err != nil {
		return nil, err
	}

	return result, nil
}
