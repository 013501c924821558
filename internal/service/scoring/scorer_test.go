package scoring

import (
	"testing"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func twoQuestionSnapshot() []models.QuestionSnapshot {
	return []models.QuestionSnapshot{
		{QuestionID: "q1", CorrectOption: 0, Marks: 1},
		{QuestionID: "q2", CorrectOption: 1, Marks: 2},
	}
}

func TestEvaluateAllCorrect(t *testing.T) {
	outcome := Evaluate(twoQuestionSnapshot(), []*int{intPtr(0), intPtr(1)})

	require.Equal(t, 3, outcome.Score)
	require.Equal(t, 3, outcome.TotalMarks)
	require.Len(t, outcome.PerQuestion, 2)
	require.True(t, outcome.PerQuestion[0].Correct)
	require.True(t, outcome.PerQuestion[1].Correct)
	require.Equal(t, 1, outcome.PerQuestion[0].Awarded)
	require.Equal(t, 2, outcome.PerQuestion[1].Awarded)
}

func TestEvaluatePartiallyCorrect(t *testing.T) {
	// First answer wrong, second correct.
	outcome := Evaluate(twoQuestionSnapshot(), []*int{intPtr(3), intPtr(1)})

	require.Equal(t, 2, outcome.Score)
	require.Equal(t, 3, outcome.TotalMarks)
	require.False(t, outcome.PerQuestion[0].Correct)
	require.Equal(t, 0, outcome.PerQuestion[0].Awarded)
	require.True(t, outcome.PerQuestion[1].Correct)
}

func TestEvaluateUnansweredScoresZero(t *testing.T) {
	outcome := Evaluate(twoQuestionSnapshot(), []*int{nil, nil})

	require.Equal(t, 0, outcome.Score)
	// The denominator does not depend on the answers.
	require.Equal(t, 3, outcome.TotalMarks)
	for _, qr := range outcome.PerQuestion {
		require.False(t, qr.Correct)
		require.Equal(t, 0, qr.Awarded)
		require.Nil(t, qr.Selected)
	}
}

func TestEvaluateNoNegativeMarking(t *testing.T) {
	// Every answer wrong still floors at zero.
	outcome := Evaluate(twoQuestionSnapshot(), []*int{intPtr(2), intPtr(3)})

	require.Equal(t, 0, outcome.Score)
	require.Equal(t, 3, outcome.TotalMarks)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	snapshot := twoQuestionSnapshot()
	answers := []*int{intPtr(0), nil}

	first := Evaluate(snapshot, answers)
	second := Evaluate(snapshot, answers)

	require.Equal(t, first, second)
}

func TestValidateAnswersLengthMismatch(t *testing.T) {
	issues := ValidateAnswers(twoQuestionSnapshot(), []*int{intPtr(0)})

	require.Len(t, issues, 1)
	require.Contains(t, issues[0], "does not match question count")
}

func TestValidateAnswersOutOfRange(t *testing.T) {
	issues := ValidateAnswers(twoQuestionSnapshot(), []*int{intPtr(4), intPtr(-1)})

	require.Len(t, issues, 2)
}

func TestValidateAnswersNilEntriesAreValid(t *testing.T) {
	issues := ValidateAnswers(twoQuestionSnapshot(), []*int{nil, intPtr(3)})

	require.Empty(t, issues)
}

func TestSnapshotCapturesScoringFields(t *testing.T) {
	questions := []models.Question{
		{ID: "q1", Text: "text", Options: []string{"a", "b", "c", "d"}, CorrectOption: 2, Marks: 5},
	}

	snapshot := Snapshot(questions)

	require.Len(t, snapshot, 1)
	require.Equal(t, "q1", snapshot[0].QuestionID)
	require.Equal(t, 2, snapshot[0].CorrectOption)
	require.Equal(t, 5, snapshot[0].Marks)
}
