package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type TestService interface {
	CreateTest(ctx context.Context, createdBy string, req *models.CreateTestRequest) (*models.Test, error)
	UpdateTest(ctx context.Context, id string, req *models.CreateTestRequest) (*models.Test, error)
	GetTest(ctx context.Context, id string, includeAnswers bool) (*models.TestView, error)
	ListTests(ctx context.Context, page, limit int) (*models.TestsResponse, error)
	DeleteTest(ctx context.Context, id string) error
}

type testService struct {
	testRepo    repository.TestRepository
	attemptRepo repository.AttemptRepository
	logger      zerolog.Logger
	now         func() time.Time
}

func NewTestService(testRepo repository.TestRepository, attemptRepo repository.AttemptRepository, logger zerolog.Logger) TestService {
	return &testService{
		testRepo:    testRepo,
		attemptRepo: attemptRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *testService) CreateTest(ctx context.Context, createdBy string, req *models.CreateTestRequest) (*models.Test, error) {
	if issues := validateTestDefinition(req); len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}

	now := s.now()
	test := &models.Test{
		ID:              uuid.New().String(),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Deadline:        req.Deadline,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
		Questions:       buildQuestions(req.Questions),
	}
	for i := range test.Questions {
		test.Questions[i].TestID = test.ID
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to create test: %w", err)
	}

	s.logger.Info().
		Str("test_id", test.ID).
		Str("created_by", createdBy).
		Int("questions", len(test.Questions)).
		Msg("Test created")

	return test, nil
}

func (s *testService) UpdateTest(ctx context.Context, id string, req *models.CreateTestRequest) (*models.Test, error) {
	if issues := validateTestDefinition(req); len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}

	existing, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load test: %w", err)
	}
	if existing == nil {
		return nil, ErrTestNotFound
	}

	// A test with attempts on record is frozen; edits would not reach the
	// snapshots already taken anyway.
	attempted, err := s.attemptRepo.ExistsByTest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check attempts: %w", err)
	}
	if attempted {
		return nil, ErrTestLocked
	}

	existing.Title = strings.TrimSpace(req.Title)
	existing.Description = req.Description
	existing.DurationMinutes = req.DurationMinutes
	existing.Deadline = req.Deadline
	existing.UpdatedAt = s.now()
	existing.Questions = buildQuestions(req.Questions)
	for i := range existing.Questions {
		existing.Questions[i].TestID = existing.ID
	}

	if err := s.testRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update test: %w", err)
	}

	s.logger.Info().Str("test_id", id).Msg("Test updated")

	return existing, nil
}

func (s *testService) GetTest(ctx context.Context, id string, includeAnswers bool) (*models.TestView, error) {
	test, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load test: %w", err)
	}
	if test == nil {
		return nil, ErrTestNotFound
	}

	view := &models.TestView{
		ID:              test.ID,
		Title:           test.Title,
		Description:     test.Description,
		DurationMinutes: test.DurationMinutes,
		Deadline:        test.Deadline,
		TotalMarks:      test.TotalMarks(),
	}

	for _, q := range test.Questions {
		qv := models.QuestionView{
			ID:       q.ID,
			Position: q.Position,
			Text:     q.Text,
			Options:  q.Options,
			Marks:    q.Marks,
		}
		view.Questions = append(view.Questions, qv)
	}

	if includeAnswers {
		// Staff view carries the answer key alongside.
		return viewWithAnswers(view, test), nil
	}

	return view, nil
}

func viewWithAnswers(view *models.TestView, test *models.Test) *models.TestView {
	for i := range view.Questions {
		view.Questions[i].CorrectOption = &test.Questions[i].CorrectOption
	}
	return view
}

func (s *testService) ListTests(ctx context.Context, page, limit int) (*models.TestsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	tests, total, err := s.testRepo.ListAvailable(ctx, s.now(), limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	return &models.TestsResponse{
		Tests: tests,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *testService) DeleteTest(ctx context.Context, id string) error {
	exists, err := s.testRepo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check test: %w", err)
	}
	if !exists {
		return ErrTestNotFound
	}

	attempted, err := s.attemptRepo.ExistsByTest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if attempted {
		return ErrTestLocked
	}

	if err := s.testRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}

	s.logger.Info().Str("test_id", id).Msg("Test deleted")

	return nil
}

func buildQuestions(inputs []models.QuestionInput) []models.Question {
	questions := make([]models.Question, 0, len(inputs))
	for i, in := range inputs {
		questions = append(questions, models.Question{
			ID:            uuid.New().String(),
			Position:      i,
			Text:          strings.TrimSpace(in.Text),
			Options:       in.Options,
			CorrectOption: in.CorrectOption,
			Marks:         in.Marks,
		})
	}
	return questions
}

func validateTestDefinition(req *models.CreateTestRequest) []string {
	var issues []string

	if strings.TrimSpace(req.Title) == "" {
		issues = append(issues, "title is required")
	}
	if req.DurationMinutes <= 0 {
		issues = append(issues, "duration_minutes must be positive")
	}
	if len(req.Questions) == 0 {
		issues = append(issues, "at least one question is required")
	}

	for i, q := range req.Questions {
		if strings.TrimSpace(q.Text) == "" {
			issues = append(issues, fmt.Sprintf("question %d: text is required", i+1))
		}
		if len(q.Options) != models.OptionsPerQuestion {
			issues = append(issues, fmt.Sprintf("question %d: exactly %d options are required", i+1, models.OptionsPerQuestion))
		} else {
			for j, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					issues = append(issues, fmt.Sprintf("question %d: option %d must not be empty", i+1, j+1))
				}
			}
		}
		if q.CorrectOption < 0 || q.CorrectOption >= models.OptionsPerQuestion {
			issues = append(issues, fmt.Sprintf("question %d: correct_option must be between 0 and %d", i+1, models.OptionsPerQuestion-1))
		}
		if q.Marks <= 0 {
			issues = append(issues, fmt.Sprintf("question %d: marks must be positive", i+1))
		}
	}

	return issues
}
