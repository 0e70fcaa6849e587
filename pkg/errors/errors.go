package errors

import "fmt"

// ErrorType classifies failures from the remote board or local storage
type ErrorType string

const (
	// ErrorTypeRemote is a malformed or unexpected response shape from the
	// index query. The shape mismatch won't self-correct, so it is never retried.
	ErrorTypeRemote ErrorType = "remote"
	// ErrorTypeTransport is a connection-level failure during a page or asset fetch
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeStatus is a non-success status code from a page fetch
	ErrorTypeStatus ErrorType = "status"
	// ErrorTypeMalformedRecord is a post missing required fields
	ErrorTypeMalformedRecord ErrorType = "malformed_record"
	// ErrorTypeStorageConflict is a concurrent directory creation race
	ErrorTypeStorageConflict ErrorType = "storage_conflict"
	// ErrorTypeAuth is a credential rejection at startup
	ErrorTypeAuth    ErrorType = "auth"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error represents a classified error with optional HTTP status code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Remote builds an error for an index response with a missing or unexpected field
func Remote(format string, args ...interface{}) *Error {
	return &Error{Type: ErrorTypeRemote, Message: fmt.Sprintf(format, args...)}
}

// Transport wraps a connection-level failure
func Transport(err error) *Error {
	return &Error{Type: ErrorTypeTransport, Message: err.Error()}
}

// Status builds an error for a non-success status code
func Status(code int, text string) *Error {
	return &Error{Type: ErrorTypeStatus, Message: text, Code: code}
}

// Malformed builds an error naming the field a record is missing
func Malformed(field string) *Error {
	return &Error{Type: ErrorTypeMalformedRecord, Message: fmt.Sprintf("record is missing %q", field)}
}

// Auth builds a fatal credential error
func Auth(code int, text string) *Error {
	return &Error{Type: ErrorTypeAuth, Message: text, Code: code}
}

// IsRetryable checks if an error type should be retried. Remote shape errors
// and malformed records won't fix themselves; transport and status failures might.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransport, ErrorTypeStatus:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // network error
		return true
	case 429: // User Throttled
		return true
	case 401, 403, 404, 410:
		return false
	default:
		return statusCode >= 500
	}
}
