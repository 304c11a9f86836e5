package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches any *APIError carrying a 404.
	ErrNotFound = errors.New("not found")

	// ErrNoToken is returned before any request when no session token exists.
	ErrNoToken = errors.New("no session token")
)

// APIError is a non-2xx response. Message is the server's "message" field
// when the body carried one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.Status)
}

// Is reports whether target is ErrNotFound and the response was a 404.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
