package models

import (
	"time"
)

type Test struct {
	ID              string     `json:"id" db:"id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Deadline        *time.Time `json:"deadline,omitempty" db:"deadline"`
	CreatedBy       string     `json:"created_by" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	Questions       []Question `json:"questions,omitempty"`
}

type Question struct {
	ID            string   `json:"id" db:"id"`
	TestID        string   `json:"test_id" db:"test_id"`
	Position      int      `json:"position" db:"position"`
	Text          string   `json:"text" db:"text"`
	Options       []string `json:"options" db:"options"`
	CorrectOption int      `json:"correct_option" db:"correct_option"`
	Marks         int      `json:"marks" db:"marks"`
}

// OptionsPerQuestion is fixed by the authoring format.
const OptionsPerQuestion = 4

func (t *Test) TotalMarks() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Marks
	}
	return total
}

// AvailableAt reports whether the test can still be attempted at the given
// instant. A test with no deadline stays open until it is deleted.
func (t *Test) AvailableAt(now time.Time) bool {
	return t.Deadline == nil || t.Deadline.After(now)
}

type TestWithStats struct {
	Test
	QuestionCount int `json:"question_count" db:"question_count"`
	TotalMarks    int `json:"total_marks" db:"total_marks"`
}
