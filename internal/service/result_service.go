package service

import (
	"context"
	"fmt"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/rs/zerolog"
)

type ResultService interface {
	GetResult(ctx context.Context, requesterID, requesterRole, resultID string) (*models.Result, error)
	GetResultByAttempt(ctx context.Context, requesterID, requesterRole, attemptID string) (*models.Result, error)
}

type resultService struct {
	resultRepo repository.ResultRepository
	logger     zerolog.Logger
}

func NewResultService(resultRepo repository.ResultRepository, logger zerolog.Logger) ResultService {
	return &resultService{
		resultRepo: resultRepo,
		logger:     logger,
	}
}

func (s *resultService) GetResult(ctx context.Context, requesterID, requesterRole, resultID string) (*models.Result, error) {
	result, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	return s.authorize(requesterID, requesterRole, result)
}

func (s *resultService) GetResultByAttempt(ctx context.Context, requesterID, requesterRole, attemptID string) (*models.Result, error) {
	result, err := s.resultRepo.GetByAttemptID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}
	return s.authorize(requesterID, requesterRole, result)
}

// A student sees only their own results; staff see everything.
func (s *resultService) authorize(requesterID, requesterRole string, result *models.Result) (*models.Result, error) {
	if result == nil {
		return nil, ErrResultNotFound
	}
	if result.StudentID != requesterID && !models.IsStaffRole(requesterRole) {
		return nil, ErrForbidden
	}
	return result, nil
}
