package service

import (
	"errors"
	"strings"
)

// Typed errors mapped to HTTP codes in the delivery layer.
var (
	// Registration / OTP.
	ErrTicketExpired    = errors.New("otp ticket has expired")
	ErrCodeMismatch     = errors.New("otp code does not match")
	ErrDataMismatch     = errors.New("registration data does not match the issued ticket")
	ErrDuplicateAccount = errors.New("account with this email already exists")

	// Lookup failures.
	ErrAccountNotFound  = errors.New("account not found")
	ErrTestNotFound     = errors.New("test not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrResultNotFound   = errors.New("result not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrResourceNotFound = errors.New("resource not found")

	// Attempt lifecycle.
	ErrAttemptExpired     = errors.New("attempt deadline has passed")
	ErrSubmissionConflict = errors.New("attempt already finalized")
	ErrTestLocked         = errors.New("test has attempts and can no longer be changed")
	ErrTestClosed         = errors.New("test deadline has passed")

	// Ownership / access.
	ErrForbidden = errors.New("operation not permitted for this account")
)

// ValidationError carries the itemized issues found in a request so the
// caller can fix all of them at once.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Issues, "; ")
}

func NewValidationError(issues ...string) *ValidationError {
	return &ValidationError{Issues: issues}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
