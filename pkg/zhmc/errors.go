package zhmc

import (
	"errors"
	"fmt"
)

// Error represents all possible errors from the zhmc library.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorKind categorizes the error type.
type ErrorKind string

const (
	ErrKindAPI     ErrorKind = "API"
	ErrKindNetwork ErrorKind = "Network"
	ErrKindParse   ErrorKind = "Parse"
	ErrKindAuth    ErrorKind = "Auth"
)

// HMCError is the error response body documented in the HMC API book.
// Every failing HMC operation returns http-status, reason and message.
type HMCError struct {
	HTTPStatus int    `json:"http-status"`
	Reason     int    `json:"reason"`
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
}

func (e *HMCError) Error() string {
	return fmt.Sprintf("HMC error %d.%d: %s", e.HTTPStatus, e.Reason, e.Message)
}

// HMC reason codes that the client reacts to.
const (
	// reasonSessionExpired on HTTP 403 means the X-API-Session token is no
	// longer valid and a new logon is required.
	reasonSessionExpired = 5
)

// NewAPIError creates a new API error wrapping an HMC error response.
func NewAPIError(hmcErr *HMCError) *Error {
	return &Error{
		Kind:    ErrKindAPI,
		Message: fmt.Sprintf("[%d.%d] %s", hmcErr.HTTPStatus, hmcErr.Reason, hmcErr.Message),
		Cause:   hmcErr,
	}
}

// NewNetworkError creates a new network error.
func NewNetworkError(message string, cause error) *Error {
	return &Error{
		Kind:    ErrKindNetwork,
		Message: message,
		Cause:   cause,
	}
}

// NewParseError creates a new parse error.
func NewParseError(message string, cause error) *Error {
	return &Error{
		Kind:    ErrKindParse,
		Message: message,
		Cause:   cause,
	}
}

// NewAuthError creates a new authentication error.
func NewAuthError(message string) *Error {
	return &Error{
		Kind:    ErrKindAuth,
		Message: message,
	}
}

// NewNotFoundError creates an API error for a resource that could not be
// found by name. The HMC reports name-filtered list operations with an
// empty result rather than an error, so the client synthesizes one.
func NewNotFoundError(resource, name string) *Error {
	return &Error{
		Kind:    ErrKindAPI,
		Message: fmt.Sprintf("[404.0] %s %q not found", resource, name),
		Cause:   &HMCError{HTTPStatus: 404, Message: fmt.Sprintf("%s %q not found", resource, name)},
	}
}

// AsHMCError returns the HMC error response carried by err, if any.
func AsHMCError(err error) (*HMCError, bool) {
	var hmcErr *HMCError
	if errors.As(err, &hmcErr) {
		return hmcErr, true
	}
	return nil, false
}

// IsHMCError checks whether err carries an HMC error response with the
// given HTTP status and reason code.
func IsHMCError(err error, httpStatus, reason int) bool {
	hmcErr, ok := AsHMCError(err)
	return ok && hmcErr.HTTPStatus == httpStatus && hmcErr.Reason == reason
}

// IsNotFoundError checks if the error reports a resource that does not exist.
func IsNotFoundError(err error) bool {
	hmcErr, ok := AsHMCError(err)
	return ok && hmcErr.HTTPStatus == 404
}

// IsUnauthorizedError checks if the error reports failed authentication.
func IsUnauthorizedError(err error) bool {
	hmcErr, ok := AsHMCError(err)
	return ok && hmcErr.HTTPStatus == 403
}

// isSessionExpired reports whether err is the HMC telling us that the
// session token is no longer valid.
func isSessionExpired(err error) bool {
	return IsHMCError(err, 403, reasonSessionExpired)
}
