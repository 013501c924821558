package service

import (
	"context"
	"testing"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func seedResult(t *testing.T, repo *fakeResultRepo) *models.Result {
	t.Helper()

	result := &models.Result{
		ID:          "res-1",
		AttemptID:   "at-1",
		TestID:      "test-1",
		StudentID:   "stud-1",
		Score:       2,
		TotalMarks:  3,
		SubmittedAt: time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), result))
	return result
}

func TestGetResultOwner(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, zerolog.Nop())
	seedResult(t, repo)

	result, err := svc.GetResult(context.Background(), "stud-1", "student", "res-1")
	require.NoError(t, err)
	require.Equal(t, 2, result.Score)

	byAttempt, err := svc.GetResultByAttempt(context.Background(), "stud-1", "student", "at-1")
	require.NoError(t, err)
	require.Equal(t, "res-1", byAttempt.ID)
}

func TestGetResultForbiddenForOtherStudent(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, zerolog.Nop())
	seedResult(t, repo)

	_, err := svc.GetResult(context.Background(), "stud-2", "student", "res-1")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestGetResultStaffSeesAll(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, zerolog.Nop())
	seedResult(t, repo)

	result, err := svc.GetResult(context.Background(), "coord-1", "coordinator", "res-1")
	require.NoError(t, err)
	require.Equal(t, "stud-1", result.StudentID)
}

func TestGetResultNotFound(t *testing.T) {
	repo := newFakeResultRepo()
	svc := NewResultService(repo, zerolog.Nop())

	_, err := svc.GetResult(context.Background(), "stud-1", "student", "nope")
	require.ErrorIs(t, err, ErrResultNotFound)
}
