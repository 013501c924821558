// Package session owns the countdown for a running attempt. The state
// machine is a plain value with pure transitions so it can be tested
// without any clock; the Runner drives it at 1 Hz and fires the expiry
// callback exactly once.
package session

import (
	"errors"
)

type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateSubmitted
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateSubmitted:
		return "submitted"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

var (
	ErrNotRunning     = errors.New("timer is not running")
	ErrAlreadyStarted = errors.New("timer already started")
)

// Timer counts whole seconds down from the attempt duration. Transitions:
// NotStarted -> Running -> {Submitted, Expired}. Expired fires on the tick
// that drains the last second and can happen at most once.
type Timer struct {
	state     State
	remaining int
}

func NewTimer(seconds int) *Timer {
	if seconds < 0 {
		seconds = 0
	}
	return &Timer{
		state:     StateNotStarted,
		remaining: seconds,
	}
}

func (t *Timer) State() State   { return t.state }
func (t *Timer) Remaining() int { return t.remaining }

func (t *Timer) Start() error {
	if t.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if t.remaining == 0 {
		t.state = StateExpired
		return nil
	}
	t.state = StateRunning
	return nil
}

// Tick consumes one second. It reports true on the single transition to
// Expired; every other call reports false.
func (t *Timer) Tick() bool {
	if t.state != StateRunning {
		return false
	}

	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.state = StateExpired
		return true
	}
	return false
}

// Submit finalizes the timer before expiry.
func (t *Timer) Submit() error {
	if t.state != StateRunning {
		return ErrNotRunning
	}
	t.state = StateSubmitted
	return nil
}
