package repository

import "errors"

var (
	// ErrUserNotFound indicates the referenced id no longer exists, e.g.
	// an update racing another client's delete.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the backend rejected a create or update
	// because the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)
