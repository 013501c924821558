package models

import (
	"time"
)

type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Selected   *int   `json:"selected"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	Marks      int    `json:"marks"`
}

type Result struct {
	ID          string           `json:"id" db:"id"`
	AttemptID   string           `json:"attempt_id" db:"attempt_id"`
	TestID      string           `json:"test_id" db:"test_id"`
	StudentID   string           `json:"student_id" db:"student_id"`
	Score       int              `json:"score" db:"score"`
	TotalMarks  int              `json:"total_marks" db:"total_marks"`
	PerQuestion []QuestionResult `json:"per_question"`
	SubmittedAt time.Time        `json:"submitted_at" db:"submitted_at"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
