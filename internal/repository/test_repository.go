package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type TestRepository interface {
	Create(ctx context.Context, test *models.Test) error
	Update(ctx context.Context, test *models.Test) error
	GetByID(ctx context.Context, id string) (*models.Test, error)
	ListAvailable(ctx context.Context, now time.Time, limit, offset int) ([]models.TestWithStats, int, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type testRepository struct {
	*PostgresRepository
}

func NewTestRepository(db *sql.DB, logger zerolog.Logger) TestRepository {
	return &testRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *testRepository) Create(ctx context.Context, test *models.Test) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO tests (id, title, description, duration_minutes, deadline, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if _, err := tx.ExecContext(ctx, query,
		test.ID,
		test.Title,
		test.Description,
		test.DurationMinutes,
		test.Deadline,
		test.CreatedBy,
		test.CreatedAt,
		test.UpdatedAt,
	); err != nil {
		return err
	}

	if err := insertQuestions(ctx, tx, test.ID, test.Questions); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *testRepository) Update(ctx context.Context, test *models.Test) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE tests
		SET title = $1, description = $2, duration_minutes = $3, deadline = $4, updated_at = $5
		WHERE id = $6
	`

	if _, err := tx.ExecContext(ctx, query,
		test.Title,
		test.Description,
		test.DurationMinutes,
		test.Deadline,
		test.UpdatedAt,
		test.ID,
	); err != nil {
		return err
	}

	// Questions are replaced wholesale; partial edits are not supported.
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE test_id = $1`, test.ID); err != nil {
		return err
	}

	if err := insertQuestions(ctx, tx, test.ID, test.Questions); err != nil {
		return err
	}

	return tx.Commit()
}

func insertQuestions(ctx context.Context, tx *sql.Tx, testID string, questions []models.Question) error {
	query := `
		INSERT INTO questions (id, test_id, position, text, options, correct_option, marks)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, q := range questions {
		if _, err := tx.ExecContext(ctx, query,
			q.ID,
			testID,
			q.Position,
			q.Text,
			pq.Array(q.Options),
			q.CorrectOption,
			q.Marks,
		); err != nil {
			return err
		}
	}

	return nil
}

func (r *testRepository) GetByID(ctx context.Context, id string) (*models.Test, error) {
	query := `
		SELECT id, title, description, duration_minutes, deadline, created_by, created_at, updated_at
		FROM tests
		WHERE id = $1
	`

	test := &models.Test{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&test.ID,
		&test.Title,
		&test.Description,
		&test.DurationMinutes,
		&test.Deadline,
		&test.CreatedBy,
		&test.CreatedAt,
		&test.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	questionsQuery := `
		SELECT id, test_id, position, text, options, correct_option, marks
		FROM questions
		WHERE test_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, questionsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var q models.Question
		if err := rows.Scan(
			&q.ID,
			&q.TestID,
			&q.Position,
			&q.Text,
			pq.Array(&q.Options),
			&q.CorrectOption,
			&q.Marks,
		); err != nil {
			return nil, err
		}
		test.Questions = append(test.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return test, nil
}

func (r *testRepository) ListAvailable(ctx context.Context, now time.Time, limit, offset int) ([]models.TestWithStats, int, error) {
	countQuery := `SELECT COUNT(*) FROM tests WHERE deadline IS NULL OR deadline > $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, now).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			t.id, t.title, t.description, t.duration_minutes, t.deadline, t.created_by, t.created_at, t.updated_at,
			COUNT(q.id) AS question_count,
			COALESCE(SUM(q.marks), 0) AS total_marks
		FROM tests t
		LEFT JOIN questions q ON q.test_id = t.id
		WHERE t.deadline IS NULL OR t.deadline > $1
		GROUP BY t.id
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tests []models.TestWithStats
	for rows.Next() {
		var t models.TestWithStats
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.DurationMinutes,
			&t.Deadline,
			&t.CreatedBy,
			&t.CreatedAt,
			&t.UpdatedAt,
			&t.QuestionCount,
			&t.TotalMarks,
		); err != nil {
			return nil, 0, err
		}
		tests = append(tests, t)
	}

	return tests, total, rows.Err()
}

func (r *testRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM tests WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *testRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tests WHERE id = $1)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *testRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tests`).Scan(&total)
	return total, err
}
