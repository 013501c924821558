package models

import "time"

// Data Transfer Objects

type RegistrationRequest struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Year               int    `json:"year"`
	Branch             string `json:"branch"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	Role               string `json:"role"`
}

type SendOTPResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyOTPRequest struct {
	RegistrationRequest
	Ticket string `json:"ticket"`
	Code   string `json:"code"`
}

type AccountResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	RegistrationNumber string `json:"registration_number,omitempty"`
	Year               int    `json:"year"`
	Branch             string `json:"branch"`
	Role               string `json:"role"`
}

type QuestionInput struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Marks         int      `json:"marks"`
}

type CreateTestRequest struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	DurationMinutes int             `json:"duration_minutes"`
	Deadline        *time.Time      `json:"deadline,omitempty"`
	Questions       []QuestionInput `json:"questions"`
}

// QuestionView is what a test taker sees. CorrectOption is only populated
// for staff requests.
type QuestionView struct {
	ID            string   `json:"id"`
	Position      int      `json:"position"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	Marks         int      `json:"marks"`
	CorrectOption *int     `json:"correct_option,omitempty"`
}

type TestView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DurationMinutes int            `json:"duration_minutes"`
	Deadline        *time.Time     `json:"deadline,omitempty"`
	TotalMarks      int            `json:"total_marks"`
	Questions       []QuestionView `json:"questions,omitempty"`
}

type TestsResponse struct {
	Tests []TestWithStats `json:"tests"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type StartAttemptResponse struct {
	AttemptID        string         `json:"attempt_id"`
	TestID           string         `json:"test_id"`
	Questions        []QuestionView `json:"questions"`
	Answers          []*int         `json:"answers"`
	StartedAt        time.Time      `json:"started_at"`
	Deadline         time.Time      `json:"deadline"`
	RemainingSeconds int            `json:"remaining_seconds"`
}

type SaveAnswersRequest struct {
	Answers []*int `json:"answers"`
}

type SubmitAttemptRequest struct {
	Answers []*int `json:"answers"`
}

type CreateEventRequest struct {
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Branches    []string  `json:"branches"`
}

type EventsResponse struct {
	Events []PlacementEvent `json:"events"`
	Total  int              `json:"total"`
	Page   int              `json:"page"`
	Limit  int              `json:"limit"`
}

type ResourcesResponse struct {
	Resources []Resource `json:"resources"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}
