package models

import (
	"errors"
	"regexp"
	"strings"
)

// ValidationError is raised client-side before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "invalid format"}
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "required"}
	}
	if len(password) < 6 {
		return &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return &ValidationError{Field: "displayName", Reason: "must be at least 2 characters"}
	}
	return nil
}
