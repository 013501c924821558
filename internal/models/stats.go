package models

import (
	"time"
)

// TestStatistics is the rolled-up view maintained by the stats worker from
// attempt.finalized events.
type TestStatistics struct {
	TestID         string    `json:"test_id" db:"test_id"`
	Attempts       int       `json:"attempts" db:"attempts"`
	AvgPercentage  float64   `json:"avg_percentage" db:"avg_percentage"`
	BestPercentage float64   `json:"best_percentage" db:"best_percentage"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type SummaryReport struct {
	Registrations []RegistrationStat `json:"registrations"`
	Tests         int                `json:"tests"`
	Attempts      int                `json:"attempts"`
	Events        int                `json:"events"`
	Resources     int                `json:"resources"`
}
