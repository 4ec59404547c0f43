package authhubclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("authhubclient: unauthorized")
	ErrForbidden    = errors.New("authhubclient: forbidden")
	ErrNotFound     = errors.New("authhubclient: not found")
	// ErrNoMatch is returned by MatchEndpoint when no endpoint pattern matches.
	ErrNoMatch = errors.New("authhubclient: no endpoint matches the request")
)

// APIError is a non-2xx answer. Message holds the "error" field of the body,
// which is a string or, for validation failures, a field to message map.
type APIError struct {
	StatusCode int
	Message    any
}

func newAPIError(res *response) *APIError {
	e := &APIError{StatusCode: res.status}
	var body struct {
		Error any `json:"error"`
	}
	if json.Unmarshal(res.body, &body) == nil && body.Error != nil {
		e.Message = body.Error
	} else {
		e.Message = http.StatusText(res.status)
	}
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authhub: %d: %v", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
