package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/gcek-placements/placement-portal/internal/worker/queue"
	"github.com/rs/zerolog"
)

// StatsWorker folds attempt.finalized events into the per-test rollups that
// back the reports endpoints.
type StatsWorker interface {
	Start(ctx context.Context) error
	Stop() error
	Stats() StatsWorkerStats
}

type StatsWorkerStats struct {
	BusyWorkers    int `json:"busy_workers"`
	TotalProcessed int `json:"total_processed"`
	FailedJobs     int `json:"failed_jobs"`
	QueueLength    int `json:"queue_length"`
}

type statsWorker struct {
	pool      *WorkerPool
	consumer  queue.Consumer
	statsRepo repository.StatsRepository
	logger    zerolog.Logger

	mu        sync.RWMutex
	processed int
	failed    int
}

func NewStatsWorker(
	pool *WorkerPool,
	consumer queue.Consumer,
	statsRepo repository.StatsRepository,
	logger zerolog.Logger,
) StatsWorker {
	return &statsWorker{
		pool:      pool,
		consumer:  consumer,
		statsRepo: statsRepo,
		logger:    logger,
	}
}

func (w *statsWorker) Start(ctx context.Context) error {
	if err := w.pool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := w.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go w.processMessages(ctx, msgs)

	w.logger.Info().Msg("Stats worker started")
	return nil
}

func (w *statsWorker) Stop() error {
	if err := w.pool.Stop(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}
	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close consumer")
	}

	w.mu.RLock()
	w.logger.Info().
		Int("total_processed", w.processed).
		Int("failed_jobs", w.failed).
		Msg("Stats worker stopped")
	w.mu.RUnlock()

	return nil
}

func (w *statsWorker) processMessages(ctx context.Context, msgs <-chan queue.Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Stopping stats message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Warn().Msg("Stats message channel closed")
				return
			}

			w.pool.Submit(func() {
				if err := w.processMessage(ctx, msg); err != nil {
					w.logger.Error().Err(err).Msg("Failed to process stats message")

					w.mu.Lock()
					w.failed++
					w.mu.Unlock()

					// A message that can never succeed is acked away instead
					// of cycling through the queue forever.
					if isPermanentError(err) {
						if ackErr := msg.Ack(false); ackErr != nil {
							w.logger.Error().Err(ackErr).Msg("Failed to ack message")
						}
						return
					}

					if nackErr := msg.Nack(false, true); nackErr != nil {
						w.logger.Error().Err(nackErr).Msg("Failed to nack message")
					}
					return
				}

				if err := msg.Ack(false); err != nil {
					w.logger.Error().Err(err).Msg("Failed to ack message")
				}

				w.mu.Lock()
				w.processed++
				w.mu.Unlock()
			})
		}
	}
}

func (w *statsWorker) processMessage(ctx context.Context, msg queue.Message) error {
	var event models.AttemptFinalizedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	if strings.TrimSpace(event.TestID) == "" {
		return permanent(errors.New("empty test_id"))
	}
	if event.TotalMarks <= 0 {
		return permanent(fmt.Errorf("non-positive total_marks %d", event.TotalMarks))
	}

	percentage := float64(event.Score) / float64(event.TotalMarks) * 100

	at := time.Unix(event.Timestamp, 0)
	if event.Timestamp == 0 {
		at = time.Now()
	}

	if err := w.statsRepo.RecordAttempt(ctx, event.TestID, percentage, at); err != nil {
		return fmt.Errorf("failed to record attempt stats: %w", err)
	}

	w.logger.Info().
		Str("test_id", event.TestID).
		Str("attempt_id", event.AttemptID).
		Float64("percentage", percentage).
		Msg("Attempt folded into test statistics")

	return nil
}

func (w *statsWorker) Stats() StatsWorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return StatsWorkerStats{
		BusyWorkers:    w.pool.BusyWorkers(),
		TotalProcessed: w.processed,
		FailedJobs:     w.failed,
		QueueLength:    w.pool.QueueLength(),
	}
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
