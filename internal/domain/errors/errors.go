// Package errors defines the SDK error kinds surfaced to host applications.
package errors

import (
	"fmt"

	"ulink/internal/errors"
)

// Kind is the business classification of an SDK error.
type Kind string

const (
	KindNotInitialized       Kind = "NOT_INITIALIZED"
	KindInitializationFailed Kind = "INITIALIZATION_FAILED"
	KindInvalidConfiguration Kind = "INVALID_CONFIGURATION"
	KindNetwork              Kind = "NETWORK_ERROR"
	KindHTTP                 Kind = "HTTP_ERROR"
	KindInvalidResponse      Kind = "INVALID_RESPONSE"
	KindInvalidParameters    Kind = "INVALID_PARAMETERS"
	KindSession              Kind = "SESSION_ERROR"
	KindInstallation         Kind = "INSTALLATION_ERROR"
	KindPersistence          Kind = "PERSISTENCE_ERROR"
	KindDeferredLink         Kind = "DEFERRED_LINK_ERROR"
	KindBootstrapFailed      Kind = "BOOTSTRAP_FAILED"
)

// SDKError is a basic error structure carrying a kind and a user-facing
// message. Sentinel instances below match through wrapping via errors.Is.
type SDKError struct {
	kind    Kind
	message string
}

// NewSDKError creates a new SDK error.
func NewSDKError(kind Kind, message string) *SDKError {
	return &SDKError{kind: kind, message: message}
}

// Error implements the error interface.
func (e *SDKError) Error() string {
	return e.message
}

// Kind returns the business error kind.
func (e *SDKError) Kind() Kind {
	return e.kind
}

// Message returns the user-friendly error message.
func (e *SDKError) Message() string {
	return e.message
}

// Is matches any SDKError of the same kind, so callers can test against
// the sentinels regardless of the message.
func (e *SDKError) Is(target error) bool {
	t, ok := target.(*SDKError)
	if !ok {
		return false
	}

	return e.kind == t.kind
}

// WrapMessage wraps the error with additional context message.
func (e *SDKError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// Predefined error kinds
var (
	// ErrNotInitialized is returned by gated operations before a
	// successful bootstrap.
	ErrNotInitialized = NewSDKError(KindNotInitialized, "engine is not initialized")

	// ErrInitializationFailed is returned by gated operations after the
	// last bootstrap attempt failed.
	ErrInitializationFailed = NewSDKError(KindInitializationFailed, "engine initialization failed")

	// ErrInvalidConfiguration signals a config that fails validation.
	ErrInvalidConfiguration = NewSDKError(KindInvalidConfiguration, "invalid configuration")

	// ErrInvalidResponse signals a 2xx response whose body could not be
	// understood.
	ErrInvalidResponse = NewSDKError(KindInvalidResponse, "invalid response from server")

	// ErrInvalidParameters signals bad caller-supplied input.
	ErrInvalidParameters = NewSDKError(KindInvalidParameters, "invalid parameters")

	// ErrSession signals a session lifecycle failure.
	ErrSession = NewSDKError(KindSession, "session operation failed")

	// ErrInstallation signals an installation identity failure.
	ErrInstallation = NewSDKError(KindInstallation, "installation identity operation failed")

	// ErrPersistence signals a local storage failure.
	ErrPersistence = NewSDKError(KindPersistence, "persistence operation failed")

	// ErrDeferredLink signals a deferred-match failure. It never escapes
	// the detached deferred-check path.
	ErrDeferredLink = NewSDKError(KindDeferredLink, "deferred link check failed")
)

// NetworkError wraps a transport-level failure (connection refused, DNS,
// timeout) as opposed to an HTTP response with an error status.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx HTTP response. The body is retained so callers
// can extract error detail from it.
type HTTPError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Status)
}

// BootstrapError reports a failed bootstrap attempt. Status is zero when
// the failure never reached the backend.
type BootstrapError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *BootstrapError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("bootstrap failed (status %d): %s", e.Status, e.Message)
	}

	return fmt.Sprintf("bootstrap failed: %s", e.Message)
}

// Is lets callers match any bootstrap failure against
// ErrInitializationFailed without inspecting the payload.
func (e *BootstrapError) Is(target error) bool {
	return target == error(ErrInitializationFailed)
}
