package models

import (
	"time"
)

type Account struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	Email              string    `json:"email" db:"email"`
	RegistrationNumber string    `json:"registration_number,omitempty" db:"registration_number"`
	Year               int       `json:"year" db:"year"`
	Branch             string    `json:"branch" db:"branch"`
	Role               string    `json:"role" db:"role"`
	PasswordHash       string    `json:"-" db:"password_hash"`
	IdentityUID        string    `json:"-" db:"identity_uid"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

type Role string

const (
	RoleStudent     Role = "student"
	RoleAlumni      Role = "alumni"
	RoleCoordinator Role = "coordinator"
	RoleAdvisor     Role = "advisor"
)

func (r Role) String() string {
	return string(r)
}

func IsValidRole(role string) bool {
	switch role {
	case "student", "alumni", "coordinator", "advisor":
		return true
	default:
		return false
	}
}

// IsStaffRole reports whether the role may author tests and events.
func IsStaffRole(role string) bool {
	return role == RoleCoordinator.String() || role == RoleAdvisor.String()
}

type RegistrationStat struct {
	Branch string `json:"branch" db:"branch"`
	Role   string `json:"role" db:"role"`
	Count  int    `json:"count" db:"count"`
}
