package orm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by single-record writes whose resource does
	// not exist. One never returns it; an absent row is reported as found=false.
	ErrNotFound = errors.New("orm: not found")

	// ErrConfiguration marks fatal setup errors: a missing base URI, or a
	// model without a primary key used where de-duplication needs one.
	ErrConfiguration = errors.New("orm: configuration error")

	// ErrURLResolution marks a path placeholder with no value.
	ErrURLResolution = errors.New("orm: url resolution failed")
)

// URLResolutionError reports the placeholder of a path template that
// resolved neither from query parameters nor from the body.
type URLResolutionError struct {
	Template    string
	Placeholder string
}

func (e *URLResolutionError) Error() string {
	return fmt.Sprintf("orm: no value for {%s} in path %q", e.Placeholder, e.Template)
}

func (e *URLResolutionError) Is(target error) bool { return target == ErrURLResolution }

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}

// ErrorCode classifies transport failures.
type ErrorCode int

const (
	// ErrCodeConnection indicates the handler failed before a response arrived.
	ErrCodeConnection ErrorCode = iota
	// ErrCodeTimeout indicates the context or handler timed out.
	ErrCodeTimeout
	// ErrCodeAuth indicates a 401 or 403 response.
	ErrCodeAuth
	// ErrCodeNotFound indicates a 404 response.
	ErrCodeNotFound
	// ErrCodeValidation indicates any other 4xx response.
	ErrCodeValidation
	// ErrCodeServer indicates a 5xx response.
	ErrCodeServer
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConnection:
		return "connection"
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	default:
		return "unknown"
	}
}

// TransportError wraps every failure of the HTTP handler, including non-2xx
// responses. It is never retried.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Code       ErrorCode
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("orm: %s %s: %s (HTTP %d)", e.Method, e.URL, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("orm: %s %s: %s: %v", e.Method, e.URL, e.Code, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyStatus returns nil for 2xx responses.
func classifyStatus(method, url string, status int, body []byte) *TransportError {
	if status >= 200 && status < 300 {
		return nil
	}
	e := &TransportError{Method: method, URL: url, StatusCode: status, Body: body}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case status == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case status >= 400 && status < 500:
		e.Code = ErrCodeValidation
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// IsNotFound reports whether err is a 404 transport error.
func IsNotFound(err error) bool {
	var e *TransportError
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var e *TransportError
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}
