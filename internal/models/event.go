package models

// Broker events published on the placement exchange.

type AttemptFinalizedEvent struct {
	AttemptID  string `json:"attempt_id"`
	TestID     string `json:"test_id"`
	StudentID  string `json:"student_id"`
	Status     string `json:"status"`
	Score      int    `json:"score"`
	TotalMarks int    `json:"total_marks"`
	Timestamp  int64  `json:"timestamp"`
}

type RegistrationCompletedEvent struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Branch    string `json:"branch"`
	Year      int    `json:"year"`
	Timestamp int64  `json:"timestamp"`
}
