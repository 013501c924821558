package service

import (
	"context"
	"fmt"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/rs/zerolog"
)

type ReportService interface {
	TestReport(ctx context.Context, testID string) (*models.TestStatistics, error)
	Summary(ctx context.Context) (*models.SummaryReport, error)
}

type reportService struct {
	statsRepo    repository.StatsRepository
	testRepo     repository.TestRepository
	attemptRepo  repository.AttemptRepository
	accountRepo  repository.AccountRepository
	eventRepo    repository.EventRepository
	resourceRepo repository.ResourceRepository
	logger       zerolog.Logger
}

func NewReportService(
	statsRepo repository.StatsRepository,
	testRepo repository.TestRepository,
	attemptRepo repository.AttemptRepository,
	accountRepo repository.AccountRepository,
	eventRepo repository.EventRepository,
	resourceRepo repository.ResourceRepository,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		statsRepo:    statsRepo,
		testRepo:     testRepo,
		attemptRepo:  attemptRepo,
		accountRepo:  accountRepo,
		eventRepo:    eventRepo,
		resourceRepo: resourceRepo,
		logger:       logger,
	}
}

func (s *reportService) TestReport(ctx context.Context, testID string) (*models.TestStatistics, error) {
	exists, err := s.testRepo.Exists(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to check test: %w", err)
	}
	if !exists {
		return nil, ErrTestNotFound
	}

	stats, err := s.statsRepo.GetByTestID(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test statistics: %w", err)
	}
	if stats == nil {
		// No finalized attempts yet; an empty rollup reads better than a 404.
		return &models.TestStatistics{TestID: testID}, nil
	}

	return stats, nil
}

func (s *reportService) Summary(ctx context.Context) (*models.SummaryReport, error) {
	registrations, err := s.accountRepo.RegistrationStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registration stats: %w", err)
	}

	tests, err := s.testRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tests: %w", err)
	}

	attempts, err := s.attemptRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}

	events, err := s.eventRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	resources, err := s.resourceRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count resources: %w", err)
	}

	return &models.SummaryReport{
		Registrations: registrations,
		Tests:         tests,
		Attempts:      attempts,
		Events:        events,
		Resources:     resources,
	}, nil
}
