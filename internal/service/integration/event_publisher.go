package integration

import (
	"context"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/worker/queue"
	"github.com/rs/zerolog"
)

const (
	RoutingKeyAttemptFinalized      = "attempt.finalized"
	RoutingKeyRegistrationCompleted = "registration.completed"
)

type EventPublisher interface {
	PublishAttemptFinalized(ctx context.Context, event *models.AttemptFinalizedEvent) error
	PublishRegistrationCompleted(ctx context.Context, event *models.RegistrationCompletedEvent) error
}

type eventPublisher struct {
	publisher queue.Publisher
	exchange  string
	logger    zerolog.Logger
}

func NewEventPublisher(publisher queue.Publisher, exchange string, logger zerolog.Logger) EventPublisher {
	return &eventPublisher{
		publisher: publisher,
		exchange:  exchange,
		logger:    logger,
	}
}

func (p *eventPublisher) PublishAttemptFinalized(ctx context.Context, event *models.AttemptFinalizedEvent) error {
	return p.publisher.Publish(ctx, p.exchange, RoutingKeyAttemptFinalized, event)
}

func (p *eventPublisher) PublishRegistrationCompleted(ctx context.Context, event *models.RegistrationCompletedEvent) error {
	return p.publisher.Publish(ctx, p.exchange, RoutingKeyRegistrationCompleted, event)
}
