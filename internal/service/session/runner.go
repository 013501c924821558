package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ExpireFunc is called once when a tracked attempt runs out of time.
type ExpireFunc func(attemptID string)

type trackedTimer struct {
	timer *Timer
	stop  chan struct{}
}

// Runner drives one Timer goroutine per running attempt. Cancel tears the
// goroutine down without finalizing anything; the expiry callback and
// Cancel can race, which is why finalization itself must stay idempotent
// at the store.
type Runner struct {
	mu     sync.Mutex
	timers map[string]*trackedTimer
	logger zerolog.Logger
	wg     sync.WaitGroup
}

func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{
		timers: make(map[string]*trackedTimer),
		logger: logger,
	}
}

// Track starts a countdown for the attempt. Tracking an attempt that is
// already tracked is a no-op; the original countdown keeps its schedule.
func (r *Runner) Track(attemptID string, remainingSeconds int, onExpire ExpireFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.timers[attemptID]; exists {
		return
	}

	timer := NewTimer(remainingSeconds)
	if err := timer.Start(); err != nil {
		return
	}

	tracked := &trackedTimer{
		timer: timer,
		stop:  make(chan struct{}),
	}
	r.timers[attemptID] = tracked

	if timer.State() == StateExpired {
		// Zero seconds left at registration time.
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			onExpire(attemptID)
			r.remove(attemptID)
		}()
		return
	}

	r.wg.Add(1)
	go r.run(attemptID, tracked, onExpire)

	r.logger.Debug().
		Str("attempt_id", attemptID).
		Int("remaining_seconds", remainingSeconds).
		Msg("Attempt countdown started")
}

func (r *Runner) run(attemptID string, tracked *trackedTimer, onExpire ExpireFunc) {
	defer r.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-tracked.stop:
			return
		case <-ticker.C:
			if tracked.timer.Tick() {
				r.logger.Info().
					Str("attempt_id", attemptID).
					Msg("Attempt countdown expired, finalizing")
				onExpire(attemptID)
				r.remove(attemptID)
				return
			}
		}
	}
}

// Cancel stops the countdown for a finalized or abandoned attempt.
func (r *Runner) Cancel(attemptID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tracked, ok := r.timers[attemptID]
	if !ok {
		return
	}

	close(tracked.stop)
	delete(r.timers, attemptID)
}

// Tracked reports whether the attempt has a live countdown.
func (r *Runner) Tracked(attemptID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[attemptID]
	return ok
}

// Stop cancels every countdown and waits for the goroutines to drain.
func (r *Runner) Stop() {
	r.mu.Lock()
	for id, tracked := range r.timers {
		close(tracked.stop)
		delete(r.timers, id)
	}
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info().Msg("Session runner stopped")
}

func (r *Runner) remove(attemptID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tracked, ok := r.timers[attemptID]; ok {
		select {
		case <-tracked.stop:
		default:
			close(tracked.stop)
		}
		delete(r.timers, attemptID)
	}
}
