package queue

import (
	"context"

	"github.com/rs/zerolog"
)

// nopPublisher stands in when the broker is unreachable so publishing stays
// a non-fatal concern for the caller.
type nopPublisher struct {
	logger zerolog.Logger
}

func NewNopPublisher(logger zerolog.Logger) Publisher {
	return &nopPublisher{logger: logger}
}

func (p *nopPublisher) Publish(ctx context.Context, exchange, routingKey string, event interface{}) error {
	p.logger.Warn().
		Str("exchange", exchange).
		Str("routing_key", routingKey).
		Msg("Broker unavailable, event dropped")
	return nil
}

func (p *nopPublisher) Close() error {
	return nil
}
