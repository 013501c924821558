package service

import (
	"context"
	"testing"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func validTestRequest() *models.CreateTestRequest {
	return &models.CreateTestRequest{
		Title:           "Aptitude Round 1",
		Description:     "Quantitative aptitude screening",
		DurationMinutes: 30,
		Questions: []models.QuestionInput{
			{
				Text:          "2 + 2 = ?",
				Options:       []string{"3", "4", "5", "6"},
				CorrectOption: 1,
				Marks:         1,
			},
			{
				Text:          "Capital of Kerala?",
				Options:       []string{"Kochi", "Kozhikode", "Thiruvananthapuram", "Thrissur"},
				CorrectOption: 2,
				Marks:         2,
			},
		},
	}
}

func newTestServiceFixture() (TestService, *fakeTestRepo, *fakeAttemptRepo) {
	testRepo := newFakeTestRepo()
	attemptRepo := newFakeAttemptRepo()
	return NewTestService(testRepo, attemptRepo, zerolog.Nop()), testRepo, attemptRepo
}

func TestCreateTestHappyPath(t *testing.T) {
	svc, repo, _ := newTestServiceFixture()

	test, err := svc.CreateTest(context.Background(), "staff-1", validTestRequest())
	require.NoError(t, err)
	require.NotEmpty(t, test.ID)
	require.Equal(t, "staff-1", test.CreatedBy)
	require.Len(t, test.Questions, 2)
	require.Equal(t, 0, test.Questions[0].Position)
	require.Equal(t, 1, test.Questions[1].Position)
	require.Equal(t, 3, test.TotalMarks())

	stored, err := repo.GetByID(context.Background(), test.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCreateTestValidationIsItemized(t *testing.T) {
	svc, _, _ := newTestServiceFixture()

	req := &models.CreateTestRequest{
		Title:           "  ",
		DurationMinutes: 0,
		Questions: []models.QuestionInput{
			{
				Text:          "",
				Options:       []string{"a", "b", "c"},
				CorrectOption: 4,
				Marks:         0,
			},
		},
	}

	_, err := svc.CreateTest(context.Background(), "staff-1", req)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	// title, duration, question text, option count, correct option, marks.
	require.Len(t, ve.Issues, 6)
}

func TestCreateTestRejectsEmptyOption(t *testing.T) {
	svc, _, _ := newTestServiceFixture()

	req := validTestRequest()
	req.Questions[0].Options = []string{"a", "", "c", "d"}

	_, err := svc.CreateTest(context.Background(), "staff-1", req)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Issues, 1)
}

func TestCreateTestRequiresQuestions(t *testing.T) {
	svc, _, _ := newTestServiceFixture()

	req := validTestRequest()
	req.Questions = nil

	_, err := svc.CreateTest(context.Background(), "staff-1", req)
	require.True(t, IsValidationError(err))
}

func TestUpdateTestLockedAfterAttempt(t *testing.T) {
	svc, _, attemptRepo := newTestServiceFixture()

	test, err := svc.CreateTest(context.Background(), "staff-1", validTestRequest())
	require.NoError(t, err)

	require.NoError(t, attemptRepo.Create(context.Background(), &models.Attempt{
		ID:     "at-1",
		TestID: test.ID,
		Status: models.AttemptStatusRunning,
	}))

	_, err = svc.UpdateTest(context.Background(), test.ID, validTestRequest())
	require.ErrorIs(t, err, ErrTestLocked)

	err = svc.DeleteTest(context.Background(), test.ID)
	require.ErrorIs(t, err, ErrTestLocked)
}

func TestUpdateTestReplacesQuestions(t *testing.T) {
	svc, repo, _ := newTestServiceFixture()

	test, err := svc.CreateTest(context.Background(), "staff-1", validTestRequest())
	require.NoError(t, err)

	req := validTestRequest()
	req.Title = "Aptitude Round 1 (revised)"
	req.Questions = req.Questions[:1]

	updated, err := svc.UpdateTest(context.Background(), test.ID, req)
	require.NoError(t, err)
	require.Equal(t, "Aptitude Round 1 (revised)", updated.Title)
	require.Len(t, updated.Questions, 1)

	stored, err := repo.GetByID(context.Background(), test.ID)
	require.NoError(t, err)
	require.Len(t, stored.Questions, 1)
}

func TestUpdateMissingTest(t *testing.T) {
	svc, _, _ := newTestServiceFixture()

	_, err := svc.UpdateTest(context.Background(), "nope", validTestRequest())
	require.ErrorIs(t, err, ErrTestNotFound)
}

func TestGetTestHidesAnswerKeyFromStudents(t *testing.T) {
	svc, _, _ := newTestServiceFixture()

	test, err := svc.CreateTest(context.Background(), "staff-1", validTestRequest())
	require.NoError(t, err)

	studentView, err := svc.GetTest(context.Background(), test.ID, false)
	require.NoError(t, err)
	for _, q := range studentView.Questions {
		require.Nil(t, q.CorrectOption)
	}

	staffView, err := svc.GetTest(context.Background(), test.ID, true)
	require.NoError(t, err)
	require.NotNil(t, staffView.Questions[0].CorrectOption)
	require.Equal(t, 1, *staffView.Questions[0].CorrectOption)
}

func TestListTestsSkipsPastDeadline(t *testing.T) {
	svc, _, _ := newTestServiceFixture()

	open, err := svc.CreateTest(context.Background(), "staff-1", validTestRequest())
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	closedReq := validTestRequest()
	closedReq.Title = "Closed round"
	closedReq.Deadline = &past
	closed, err := svc.CreateTest(context.Background(), "staff-1", closedReq)
	require.NoError(t, err)

	resp, err := svc.ListTests(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, open.ID, resp.Tests[0].ID)

	// Closed tests are hidden from the list but still fetchable by id.
	_, err = svc.GetTest(context.Background(), closed.ID, false)
	require.NoError(t, err)
}

func TestDeleteTest(t *testing.T) {
	svc, repo, _ := newTestServiceFixture()

	test, err := svc.CreateTest(context.Background(), "staff-1", validTestRequest())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTest(context.Background(), test.ID))

	stored, err := repo.GetByID(context.Background(), test.ID)
	require.NoError(t, err)
	require.Nil(t, stored)

	require.ErrorIs(t, svc.DeleteTest(context.Background(), test.ID), ErrTestNotFound)
}
