package core

import (
	"errors"
	"fmt"
)

// ErrInvalidMediaType signals a media type outside the closed enum. Hitting
// it at runtime is a programming fault, not a recoverable condition.
var ErrInvalidMediaType = errors.New("invalid media type")

// APIError is returned when the remote API answers with a status outside
// {200, 201, 202}. It carries the raw response body unchanged.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qobuz api: status %d: %s", e.Status, e.Body)
}

// AuthError is returned on login failures, both bad credentials and
// accounts on a tier that is not eligible for streaming.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "qobuz auth: " + e.Reason
}
