package worker

import (
	"context"
	"time"

	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/gcek-placements/placement-portal/internal/service"
	"github.com/rs/zerolog"
)

// Sweeper periodically closes running attempts whose deadline has passed.
// The in-process countdowns normally get there first; the sweeper is the
// backstop for attempts orphaned by a crash or restart.
type Sweeper struct {
	attemptRepo    repository.AttemptRepository
	attemptService service.AttemptService
	interval       time.Duration
	batchSize      int
	logger         zerolog.Logger
	now            func() time.Time
	done           chan struct{}
}

func NewSweeper(
	attemptRepo repository.AttemptRepository,
	attemptService service.AttemptService,
	interval time.Duration,
	batchSize int,
	logger zerolog.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	return &Sweeper{
		attemptRepo:    attemptRepo,
		attemptService: attemptService,
		interval:       interval,
		batchSize:      batchSize,
		logger:         logger,
		now:            time.Now,
		done:           make(chan struct{}),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
	s.logger.Info().Dur("interval", s.interval).Msg("Attempt sweeper started")
}

func (s *Sweeper) Stop() {
	<-s.done
	s.logger.Info().Msg("Attempt sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	overdue, err := s.attemptRepo.ListOverdue(ctx, s.now(), s.batchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list overdue attempts")
		return
	}

	if len(overdue) == 0 {
		return
	}

	closed := 0
	for _, attempt := range overdue {
		if err := s.attemptService.FinalizeExpired(ctx, attempt.ID); err != nil {
			s.logger.Error().Err(err).Str("attempt_id", attempt.ID).Msg("Failed to finalize overdue attempt")
			continue
		}
		closed++
	}

	s.logger.Info().
		Int("overdue", len(overdue)).
		Int("closed", closed).
		Msg("Swept overdue attempts")
}
