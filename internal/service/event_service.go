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

type EventService interface {
	CreateEvent(ctx context.Context, createdBy string, req *models.CreateEventRequest) (*models.PlacementEvent, error)
	UpdateEvent(ctx context.Context, id string, req *models.CreateEventRequest) (*models.PlacementEvent, error)
	GetEvent(ctx context.Context, id string) (*models.PlacementEvent, error)
	ListUpcoming(ctx context.Context, page, limit int) (*models.EventsResponse, error)
	DeleteEvent(ctx context.Context, id string) error
}

type eventService struct {
	eventRepo repository.EventRepository
	logger    zerolog.Logger
	now       func() time.Time
}

func NewEventService(eventRepo repository.EventRepository, logger zerolog.Logger) EventService {
	return &eventService{
		eventRepo: eventRepo,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, createdBy string, req *models.CreateEventRequest) (*models.PlacementEvent, error) {
	if issues := validateEvent(req); len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}

	now := s.now()
	event := &models.PlacementEvent{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Company:     strings.TrimSpace(req.Company),
		Description: req.Description,
		Venue:       req.Venue,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Branches:    req.Branches,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.logger.Info().
		Str("event_id", event.ID).
		Str("company", event.Company).
		Time("starts_at", event.StartsAt).
		Msg("Placement event created")

	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, req *models.CreateEventRequest) (*models.PlacementEvent, error) {
	if issues := validateEvent(req); len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	event.Title = strings.TrimSpace(req.Title)
	event.Company = strings.TrimSpace(req.Company)
	event.Description = req.Description
	event.Venue = req.Venue
	event.StartsAt = req.StartsAt
	event.EndsAt = req.EndsAt
	event.Branches = req.Branches
	event.UpdatedAt = s.now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.logger.Info().Str("event_id", id).Msg("Placement event updated")

	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*models.PlacementEvent, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) ListUpcoming(ctx context.Context, page, limit int) (*models.EventsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	events, total, err := s.eventRepo.ListUpcoming(ctx, s.now(), limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return &models.EventsResponse{
		Events: events,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return ErrEventNotFound
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.logger.Info().Str("event_id", id).Msg("Placement event deleted")

	return nil
}

func validateEvent(req *models.CreateEventRequest) []string {
	var issues []string

	if strings.TrimSpace(req.Title) == "" {
		issues = append(issues, "title is required")
	}
	if strings.TrimSpace(req.Company) == "" {
		issues = append(issues, "company is required")
	}
	if req.StartsAt.IsZero() {
		issues = append(issues, "starts_at is required")
	}
	if req.EndsAt.IsZero() {
		issues = append(issues, "ends_at is required")
	}
	if !req.StartsAt.IsZero() && !req.EndsAt.IsZero() && !req.EndsAt.After(req.StartsAt) {
		issues = append(issues, "ends_at must be after starts_at")
	}

	return issues
}
