package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/rs/zerolog"
)

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id string) (*models.Attempt, error)
	GetByStudentAndTest(ctx context.Context, studentID, testID string) (*models.Attempt, error)
	UpdateAnswers(ctx context.Context, id string, answers []*int) error
	// Finalize flips a running attempt into a final state and writes its
	// result in the same transaction, so no final attempt can exist without
	// a result. It reports false without writing anything when the attempt
	// was already finalized by a concurrent path.
	Finalize(ctx context.Context, id string, status models.AttemptStatus, finalizedAt time.Time, result *models.Result) (bool, error)
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Attempt, error)
	ExistsByTest(ctx context.Context, testID string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type attemptRepository struct {
	*PostgresRepository
}

func NewAttemptRepository(db *sql.DB, logger zerolog.Logger) AttemptRepository {
	return &attemptRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const attemptColumns = `id, test_id, student_id, snapshot, answers, status, started_at, deadline, finalized_at, score, total_marks, created_at, updated_at`

func (r *attemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	snapshot, err := json.Marshal(attempt.Snapshot)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = r.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.TestID,
		attempt.StudentID,
		snapshot,
		answers,
		attempt.Status,
		attempt.StartedAt,
		attempt.Deadline,
		attempt.FinalizedAt,
		attempt.Score,
		attempt.TotalMarks,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	)

	return err
}

func (r *attemptRepository) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts WHERE id = $1`
	return scanAttempt(r.db.QueryRowContext(ctx, query, id))
}

func (r *attemptRepository) GetByStudentAndTest(ctx context.Context, studentID, testID string) (*models.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM attempts WHERE student_id = $1 AND test_id = $2`
	return scanAttempt(r.db.QueryRowContext(ctx, query, studentID, testID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (*models.Attempt, error) {
	attempt := &models.Attempt{}
	var snapshot, answers []byte

	err := row.Scan(
		&attempt.ID,
		&attempt.TestID,
		&attempt.StudentID,
		&snapshot,
		&answers,
		&attempt.Status,
		&attempt.StartedAt,
		&attempt.Deadline,
		&attempt.FinalizedAt,
		&attempt.Score,
		&attempt.TotalMarks,
		&attempt.CreatedAt,
		&attempt.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(snapshot, &attempt.Snapshot); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &attempt.Answers); err != nil {
		return nil, err
	}

	return attempt, nil
}

func (r *attemptRepository) UpdateAnswers(ctx context.Context, id string, answers []*int) error {
	encoded, err := json.Marshal(answers)
	if err != nil {
		return err
	}

	query := `
		UPDATE attempts
		SET answers = $1, updated_at = $2
		WHERE id = $3 AND status = 'running'
	`

	_, err = r.db.ExecContext(ctx, query, encoded, time.Now(), id)
	return err
}

func (r *attemptRepository) Finalize(ctx context.Context, id string, status models.AttemptStatus, finalizedAt time.Time, result *models.Result) (bool, error) {
	perQuestion, err := json.Marshal(result.PerQuestion)
	if err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE attempts
		SET status = $1, score = $2, finalized_at = $3, updated_at = $3
		WHERE id = $4 AND status = 'running'
	`, status, result.Score, finalizedAt, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	// attempt_id is unique, so even outside this transaction a second write
	// for the same attempt fails at the constraint instead of overwriting
	// the stored result.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO results (id, attempt_id, test_id, student_id, score, total_marks, per_question, submitted_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		result.ID,
		result.AttemptID,
		result.TestID,
		result.StudentID,
		result.Score,
		result.TotalMarks,
		perQuestion,
		result.SubmittedAt,
		result.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *attemptRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Attempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM attempts
		WHERE status = 'running' AND deadline <= $1
		ORDER BY deadline
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *attempt)
	}

	return attempts, rows.Err()
}

func (r *attemptRepository) ExistsByTest(ctx context.Context, testID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM attempts WHERE test_id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, testID).Scan(&exists)
	return exists, err
}

func (r *attemptRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&total)
	return total, err
}
