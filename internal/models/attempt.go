package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptStatusRunning   AttemptStatus = "running"
	AttemptStatusSubmitted AttemptStatus = "submitted"
	AttemptStatusExpired   AttemptStatus = "expired"
)

func (s AttemptStatus) String() string {
	return string(s)
}

func (s AttemptStatus) IsFinal() bool {
	return s == AttemptStatusSubmitted || s == AttemptStatusExpired
}

// QuestionSnapshot is the scoring-relevant slice of a question captured when
// the attempt starts. Editing the test afterwards cannot change how this
// attempt is scored.
type QuestionSnapshot struct {
	QuestionID    string `json:"question_id"`
	CorrectOption int    `json:"correct_option"`
	Marks         int    `json:"marks"`
}

type Attempt struct {
	ID          string             `json:"id" db:"id"`
	TestID      string             `json:"test_id" db:"test_id"`
	StudentID   string             `json:"student_id" db:"student_id"`
	Snapshot    []QuestionSnapshot `json:"-"`
	Answers     []*int             `json:"answers"`
	Status      AttemptStatus      `json:"status" db:"status"`
	StartedAt   time.Time          `json:"started_at" db:"started_at"`
	Deadline    time.Time          `json:"deadline" db:"deadline"`
	FinalizedAt *time.Time         `json:"finalized_at,omitempty" db:"finalized_at"`
	Score       *int               `json:"score,omitempty" db:"score"`
	TotalMarks  int                `json:"total_marks" db:"total_marks"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// RemainingSeconds is the whole seconds left until the deadline, never
// negative.
func (a *Attempt) RemainingSeconds(now time.Time) int {
	remaining := int(a.Deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (a *Attempt) Overdue(now time.Time) bool {
	return a.Status == AttemptStatusRunning && !now.Before(a.Deadline)
}
