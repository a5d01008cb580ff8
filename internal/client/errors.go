package client

import (
	"errors"
	"fmt"
)

// Fetch failure classes. Wrapped errors match with errors.Is.
var (
	ErrTransport = errors.New("transport failure")
	ErrStatus    = errors.New("unexpected status")
	ErrDecode    = errors.New("malformed response")
)

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// Is lets errors.Is(err, ErrStatus) match any StatusError.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Kind returns a short label for logging: "network_error", "status_error",
// "decode_error" or "internal_error".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransport):
		return "network_error"
	case errors.Is(err, ErrStatus):
		return "status_error"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	default:
		return "internal_error"
	}
}
