package libcal

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can choose a recovery strategy
// without inspecting transport internals.
type ErrorKind string

const (
	// KindTransport covers connection failures, request construction
	// failures, unreadable responses and external cache failures.
	KindTransport ErrorKind = "transport"

	// KindResponse is an HTTP response with a failing status other than 404.
	KindResponse ErrorKind = "response"

	// KindNotFound is an HTTP 404 response.
	KindNotFound ErrorKind = "not_found"

	// KindDecode is a payload that is not JSON, has the wrong shape, or does
	// not map onto the expected record.
	KindDecode ErrorKind = "decode"

	// KindAction is an invalid action parameter, detected before sending.
	KindAction ErrorKind = "action"
)

// Error is the single error type returned by the client.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the chained lower level failure.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. The sentinels
// below carry only a kind, so errors.Is(err, ErrNotFound) matches any
// not found error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrTransport = &Error{Kind: KindTransport, Message: "transport error"}
	ErrResponse  = &Error{Kind: KindResponse, Message: "response error"}
	ErrNotFound  = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrDecode    = &Error{Kind: KindDecode, Message: "decode error"}
	ErrAction    = &Error{Kind: KindAction, Message: "invalid action parameter"}
)

// Static errors for err113 compliance.
var (
	ErrCacheMiss            = errors.New("cache miss")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
	ErrInvalidCacheEntry    = errors.New("invalid cache entry")
	ErrConfigRequired       = errors.New("config is required")
	ErrHostRequired         = errors.New("host is required")
	ErrClientIDRequired     = errors.New("client ID is required")
	ErrClientSecretRequired = errors.New("client secret is required")
)

// NewTransportError wraps cause as a transport failure.
func NewTransportError(message string, cause error) *Error {
	return &Error{Kind: KindTransport, Message: message, Cause: cause}
}

// NewResponseError reports a failing HTTP status.
func NewResponseError(statusCode int, message string, cause error) *Error {
	return &Error{Kind: KindResponse, Message: message, StatusCode: statusCode, Cause: cause}
}

// NewNotFoundError reports an HTTP 404.
func NewNotFoundError() *Error {
	return &Error{Kind: KindNotFound, Message: "resource not found", StatusCode: 404}
}

// NewDecodeError wraps cause as a payload decoding failure.
func NewDecodeError(message string, cause error) *Error {
	return &Error{Kind: KindDecode, Message: message, Cause: cause}
}

// NewActionError reports an invalid action parameter.
func NewActionError(message string, cause error) *Error {
	return &Error{Kind: KindAction, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsResponse checks if an error is a failing HTTP response.
func IsResponse(err error) bool {
	return errors.Is(err, ErrResponse)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecode checks if an error is a decoding failure.
func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

// IsAction checks if an error is an invalid action parameter.
func IsAction(err error) bool {
	return errors.Is(err, ErrAction)
}
