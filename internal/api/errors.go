package api

import (
	"errors"
	"fmt"
)

// ErrGenerationDisabled is returned by GenerateImage when the backend answers
// 404, meaning image generation is switched off for the card
// (force_generation=false). Callers must treat it as terminal: no retry.
var ErrGenerationDisabled = errors.New("image generation is disabled for this card")

// ErrMissingField is returned when a 2xx response lacks an expected payload
// field. It is subject to the same retry policy as a transport failure.
var ErrMissingField = errors.New("expected field missing in backend response")

// APIError is a non-2xx backend answer. Detail carries the backend's
// human-readable reason when the body had one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend error %d", e.Status)
}

// Reason extracts a human-readable reason from an error, preferring the
// backend's detail field when present.
func Reason(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
