// Package scoring evaluates submitted answers against the question
// snapshot taken when the attempt started. It is a pure function of its
// inputs: the same snapshot and answers always produce the same outcome.
package scoring

import (
	"fmt"

	"github.com/gcek-placements/placement-portal/internal/models"
)

type Outcome struct {
	Score       int
	TotalMarks  int
	PerQuestion []models.QuestionResult
}

// ValidateAnswers checks the shape of an answers array against the
// snapshot. A nil entry means unanswered and is always valid; anything else
// must be a real option index.
func ValidateAnswers(snapshot []models.QuestionSnapshot, answers []*int) []string {
	var issues []string

	if len(answers) != len(snapshot) {
		issues = append(issues, fmt.Sprintf(
			"answers length %d does not match question count %d", len(answers), len(snapshot)))
		return issues
	}

	for i, a := range answers {
		if a == nil {
			continue
		}
		if *a < 0 || *a >= models.OptionsPerQuestion {
			issues = append(issues, fmt.Sprintf("answer %d: option index %d out of range", i, *a))
		}
	}

	return issues
}

// Evaluate assumes the answers already passed ValidateAnswers. Total marks
// are summed over the snapshot independently of the answers, so an entirely
// unanswered attempt still reports the full denominator.
func Evaluate(snapshot []models.QuestionSnapshot, answers []*int) Outcome {
	outcome := Outcome{
		PerQuestion: make([]models.QuestionResult, 0, len(snapshot)),
	}

	for i, q := range snapshot {
		outcome.TotalMarks += q.Marks

		var selected *int
		if i < len(answers) {
			selected = answers[i]
		}

		correct := selected != nil && *selected == q.CorrectOption
		awarded := 0
		if correct {
			awarded = q.Marks
			outcome.Score += awarded
		}

		outcome.PerQuestion = append(outcome.PerQuestion, models.QuestionResult{
			QuestionID: q.QuestionID,
			Selected:   selected,
			Correct:    correct,
			Awarded:    awarded,
			Marks:      q.Marks,
		})
	}

	return outcome
}

// Snapshot captures the scoring-relevant fields of a test's questions.
func Snapshot(questions []models.Question) []models.QuestionSnapshot {
	snapshot := make([]models.QuestionSnapshot, 0, len(questions))
	for _, q := range questions {
		snapshot = append(snapshot, models.QuestionSnapshot{
			QuestionID:    q.ID,
			CorrectOption: q.CorrectOption,
			Marks:         q.Marks,
		})
	}
	return snapshot
}
