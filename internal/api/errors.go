package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed backend request. The backend guarantees no structured
// error payload, so Message carries whatever body text came back and callers
// must not branch on status codes beyond success/failure — IsNotFound exists
// only to support the search-by-id UX.
type Error struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed for %s: %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("request failed for %s: %d %s", e.Path, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
