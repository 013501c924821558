package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/gcek-placements/placement-portal/internal/service/integration"
	"github.com/gcek-placements/placement-portal/internal/service/scoring"
	"github.com/gcek-placements/placement-portal/internal/service/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AttemptService interface {
	StartAttempt(ctx context.Context, studentID, testID string) (*models.StartAttemptResponse, error)
	SaveAnswers(ctx context.Context, studentID, attemptID string, answers []*int) error
	Submit(ctx context.Context, studentID, attemptID string, answers []*int) (*models.Result, error)
	FinalizeExpired(ctx context.Context, attemptID string) error
	RecoverRunning(ctx context.Context) error
}

type attemptService struct {
	attemptRepo repository.AttemptRepository
	testRepo    repository.TestRepository
	cache       repository.SessionCache
	runner      *session.Runner
	publisher   integration.EventPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	testRepo repository.TestRepository,
	cache repository.SessionCache,
	runner *session.Runner,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) AttemptService {
	return &attemptService{
		attemptRepo: attemptRepo,
		testRepo:    testRepo,
		cache:       cache,
		runner:      runner,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// StartAttempt opens the single attempt a student gets on a test, or resumes
// it if one is already running. The deadline is fixed here and never moves:
// reconnecting buys no extra time.
func (s *attemptService) StartAttempt(ctx context.Context, studentID, testID string) (*models.StartAttemptResponse, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test: %w", err)
	}
	if test == nil {
		return nil, ErrTestNotFound
	}

	now := s.now()

	existing, err := s.attemptRepo.GetByStudentAndTest(ctx, studentID, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if existing != nil {
		if existing.Status.IsFinal() {
			return nil, ErrSubmissionConflict
		}
		if existing.Overdue(now) {
			if err := s.FinalizeExpired(ctx, existing.ID); err != nil {
				return nil, err
			}
			return nil, ErrAttemptExpired
		}
		return s.resume(test, existing, now), nil
	}

	if !test.AvailableAt(now) {
		return nil, ErrTestClosed
	}
	if len(test.Questions) == 0 {
		return nil, NewValidationError("test has no questions")
	}

	deadline := now.Add(time.Duration(test.DurationMinutes) * time.Minute)
	if test.Deadline != nil && test.Deadline.Before(deadline) {
		deadline = *test.Deadline
	}

	attempt := &models.Attempt{
		ID:         uuid.New().String(),
		TestID:     testID,
		StudentID:  studentID,
		Snapshot:   scoring.Snapshot(test.Questions),
		Answers:    make([]*int, len(test.Questions)),
		Status:     models.AttemptStatusRunning,
		StartedAt:  now,
		Deadline:   deadline,
		TotalMarks: test.TotalMarks(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	if err := s.cache.SetAttemptDeadline(ctx, attempt.ID, deadline); err != nil {
		s.logger.Error().Err(err).Str("attempt_id", attempt.ID).Msg("Failed to cache attempt deadline")
	}

	s.track(attempt.ID, attempt.RemainingSeconds(now))

	s.logger.Info().
		Str("attempt_id", attempt.ID).
		Str("test_id", testID).
		Str("student_id", studentID).
		Time("deadline", deadline).
		Msg("Attempt started")

	return s.response(test, attempt, now), nil
}

func (s *attemptService) resume(test *models.Test, attempt *models.Attempt, now time.Time) *models.StartAttemptResponse {
	// Re-track after a restart; Track is a no-op if the countdown is live.
	s.track(attempt.ID, attempt.RemainingSeconds(now))

	s.logger.Info().
		Str("attempt_id", attempt.ID).
		Int("remaining_seconds", attempt.RemainingSeconds(now)).
		Msg("Attempt resumed")

	return s.response(test, attempt, now)
}

func (s *attemptService) response(test *models.Test, attempt *models.Attempt, now time.Time) *models.StartAttemptResponse {
	questions := make([]models.QuestionView, 0, len(test.Questions))
	for _, q := range test.Questions {
		questions = append(questions, models.QuestionView{
			ID:       q.ID,
			Position: q.Position,
			Text:     q.Text,
			Options:  q.Options,
			Marks:    q.Marks,
		})
	}

	return &models.StartAttemptResponse{
		AttemptID:        attempt.ID,
		TestID:           attempt.TestID,
		Questions:        questions,
		Answers:          attempt.Answers,
		StartedAt:        attempt.StartedAt,
		Deadline:         attempt.Deadline,
		RemainingSeconds: attempt.RemainingSeconds(now),
	}
}

func (s *attemptService) SaveAnswers(ctx context.Context, studentID, attemptID string, answers []*int) error {
	if s.expiredPerCache(ctx, attemptID) {
		if err := s.FinalizeExpired(ctx, attemptID); err != nil {
			return err
		}
		return ErrAttemptExpired
	}

	attempt, err := s.loadOwned(ctx, studentID, attemptID)
	if err != nil {
		return err
	}

	if attempt.Status.IsFinal() {
		return ErrSubmissionConflict
	}
	if attempt.Overdue(s.now()) {
		if err := s.FinalizeExpired(ctx, attemptID); err != nil {
			return err
		}
		return ErrAttemptExpired
	}

	if issues := scoring.ValidateAnswers(attempt.Snapshot, answers); len(issues) > 0 {
		return NewValidationError(issues...)
	}

	if err := s.attemptRepo.UpdateAnswers(ctx, attemptID, answers); err != nil {
		return fmt.Errorf("failed to save answers: %w", err)
	}

	return nil
}

// Submit finalizes the attempt with the answers in the request. A submission
// that loses the race against the expiry path gets ErrSubmissionConflict and
// the stored result stands.
func (s *attemptService) Submit(ctx context.Context, studentID, attemptID string, answers []*int) (*models.Result, error) {
	if s.expiredPerCache(ctx, attemptID) {
		if err := s.FinalizeExpired(ctx, attemptID); err != nil {
			return nil, err
		}
		return nil, ErrAttemptExpired
	}

	attempt, err := s.loadOwned(ctx, studentID, attemptID)
	if err != nil {
		return nil, err
	}

	if attempt.Status.IsFinal() {
		return nil, ErrSubmissionConflict
	}

	now := s.now()
	if attempt.Overdue(now) {
		if err := s.FinalizeExpired(ctx, attemptID); err != nil {
			return nil, err
		}
		return nil, ErrAttemptExpired
	}

	if issues := scoring.ValidateAnswers(attempt.Snapshot, answers); len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}

	// Persist the submitted answers while the attempt is still running; the
	// status flip below stops accepting writes.
	if err := s.attemptRepo.UpdateAnswers(ctx, attemptID, answers); err != nil {
		return nil, fmt.Errorf("failed to save submitted answers: %w", err)
	}

	attempt.Answers = answers
	return s.finalize(ctx, attempt, models.AttemptStatusSubmitted, now)
}

// FinalizeExpired closes an attempt whose deadline has passed, scoring the
// last autosaved answers. Safe to call from the countdown runner, the
// sweeper, and the request path at the same time.
func (s *attemptService) FinalizeExpired(ctx context.Context, attemptID string) error {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("failed to load attempt: %w", err)
	}
	if attempt == nil {
		return ErrAttemptNotFound
	}
	if attempt.Status.IsFinal() {
		return nil
	}
	// The stored deadline is the authority; a caller arriving early (a
	// stale cache entry, a fast runner tick) is a no-op.
	if s.now().Before(attempt.Deadline) {
		return nil
	}

	// Expiry scores the answers as they stood at the deadline.
	if _, err := s.finalize(ctx, attempt, models.AttemptStatusExpired, attempt.Deadline); err != nil {
		if err == ErrSubmissionConflict {
			return nil
		}
		return err
	}
	return nil
}

func (s *attemptService) finalize(ctx context.Context, attempt *models.Attempt, status models.AttemptStatus, finalizedAt time.Time) (*models.Result, error) {
	outcome := scoring.Evaluate(attempt.Snapshot, attempt.Answers)

	result := &models.Result{
		ID:          uuid.New().String(),
		AttemptID:   attempt.ID,
		TestID:      attempt.TestID,
		StudentID:   attempt.StudentID,
		Score:       outcome.Score,
		TotalMarks:  outcome.TotalMarks,
		PerQuestion: outcome.PerQuestion,
		SubmittedAt: finalizedAt,
		CreatedAt:   s.now(),
	}

	// Status flip and result insert commit together: a failure here leaves
	// the attempt running, and the next finalization attempt starts over.
	ok, err := s.attemptRepo.Finalize(ctx, attempt.ID, status, finalizedAt, result)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize attempt: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionConflict
	}

	s.runner.Cancel(attempt.ID)
	if err := s.cache.DeleteAttempt(ctx, attempt.ID); err != nil {
		s.logger.Error().Err(err).Str("attempt_id", attempt.ID).Msg("Failed to drop attempt deadline from cache")
	}

	event := &models.AttemptFinalizedEvent{
		AttemptID:  attempt.ID,
		TestID:     attempt.TestID,
		StudentID:  attempt.StudentID,
		Status:     status.String(),
		Score:      outcome.Score,
		TotalMarks: outcome.TotalMarks,
		Timestamp:  s.now().Unix(),
	}
	if err := s.publisher.PublishAttemptFinalized(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("attempt_id", attempt.ID).Msg("Failed to publish attempt finalized event")
	}

	s.logger.Info().
		Str("attempt_id", attempt.ID).
		Str("status", status.String()).
		Int("score", outcome.Score).
		Int("total_marks", outcome.TotalMarks).
		Msg("Attempt finalized")

	return result, nil
}

// RecoverRunning re-arms countdowns for attempts that were running when the
// process last stopped. Overdue ones are closed on the spot.
func (s *attemptService) RecoverRunning(ctx context.Context) error {
	now := s.now()

	overdue, err := s.attemptRepo.ListOverdue(ctx, now, 500)
	if err != nil {
		return fmt.Errorf("failed to list overdue attempts: %w", err)
	}

	for _, attempt := range overdue {
		if err := s.FinalizeExpired(ctx, attempt.ID); err != nil {
			s.logger.Error().Err(err).Str("attempt_id", attempt.ID).Msg("Failed to finalize overdue attempt at startup")
		}
	}

	if len(overdue) > 0 {
		s.logger.Info().Int("count", len(overdue)).Msg("Closed overdue attempts at startup")
	}

	return nil
}

func (s *attemptService) track(attemptID string, remainingSeconds int) {
	s.runner.Track(attemptID, remainingSeconds, func(id string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.FinalizeExpired(ctx, id); err != nil {
			s.logger.Error().Err(err).Str("attempt_id", id).Msg("Failed to finalize expired attempt")
		}
	})
}

// expiredPerCache answers "is this attempt past its deadline" off the Redis
// copy, sparing a row read on most late writes. A cache miss or a Redis
// error falls through to the row check; the row stays the authority either
// way.
func (s *attemptService) expiredPerCache(ctx context.Context, attemptID string) bool {
	deadline, err := s.cache.GetAttemptDeadline(ctx, attemptID)
	return err == nil && s.now().After(deadline)
}

func (s *attemptService) loadOwned(ctx context.Context, studentID, attemptID string) (*models.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	if attempt == nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.StudentID != studentID {
		return nil, ErrForbidden
	}
	return attempt, nil
}
