package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the single normalized failure shape for every backend exchange.
// Status is the backend's HTTP status code, or 0 when the failure happened
// below HTTP (connection refused, timeout, unparseable response).
type Error struct {
	Status  int
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func networkError(err error) *Error {
	return &Error{Status: 0, Message: err.Error()}
}

// AsError unwraps err into a *Error if one is in the chain.
func AsError(err error) (*Error, bool) {
	var terr *Error
	if errors.As(err, &terr) {
		return terr, true
	}
	return nil, false
}

// IsStatus reports whether err is a transport error with the given status.
func IsStatus(err error, status int) bool {
	terr, ok := AsError(err)
	return ok && terr.Status == status
}

func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

func IsNetwork(err error) bool {
	return IsStatus(err, 0)
}
