package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// ErrMissingID is returned when a call needs an entity id and got none.
var ErrMissingID = errors.New("missing id")

// ErrEmptyUpdate is returned by UpdateMedia when no field is set.
var ErrEmptyUpdate = errors.New("media update changes nothing")

// ErrBadResponse marks a 2xx response whose body could not be decoded.
var ErrBadResponse = errors.New("malformed backend response")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s failed: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func statusIs(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return statusIs(err, nethttp.StatusNotFound)
}

// IsConflict reports whether err is a 409, e.g. a duplicate folder name.
func IsConflict(err error) bool {
	return statusIs(err, nethttp.StatusConflict)
}

// IsUnauthorized reports whether the session was rejected.
func IsUnauthorized(err error) bool {
	return statusIs(err, nethttp.StatusUnauthorized, nethttp.StatusForbidden)
}
