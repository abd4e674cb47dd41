package authenticator

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError via errors.Is
var ErrValidation = errors.New("validation failed")

// ValidationError reports a missing or malformed required field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func requiredError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " is required"}
}

// RequestError wraps a transport or HTTP status failure of the authorization API
type RequestError struct {
	// StatusCode is 0 when no response was received
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	msg := "authorization request failed"
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s with status %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		return msg + ": " + e.Message
	}
	return msg
}

func (e *RequestError) Unwrap() error { return e.Err }
