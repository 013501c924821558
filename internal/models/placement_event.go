package models

import (
	"time"
)

// PlacementEvent is a drive, talk or workshop published on the portal
// notice board.
type PlacementEvent struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Company     string    `json:"company" db:"company"`
	Description string    `json:"description" db:"description"`
	Venue       string    `json:"venue" db:"venue"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time `json:"ends_at" db:"ends_at"`
	Branches    []string  `json:"branches" db:"branches"`
	CreatedBy   string    `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
