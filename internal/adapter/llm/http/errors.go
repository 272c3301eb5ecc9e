package http

import "fmt"

// ErrorType classifies an API failure so callers can branch on the cause
// instead of string-matching provider messages.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeContentFiltered
	ErrTypeUnknown
)

// traits fixes the status code and retry policy per error type. Timeouts
// carry no status because the response never arrived.
var traits = map[ErrorType]struct {
	label     string
	status    int
	retryable bool
}{
	ErrTypeAuthentication:     {"authentication error", 401, false},
	ErrTypeRateLimit:          {"rate limit exceeded", 429, true},
	ErrTypeServiceUnavailable: {"service unavailable", 503, true},
	ErrTypeInvalidRequest:     {"invalid request", 400, false},
	ErrTypeTimeout:            {"timeout", 0, true},
	ErrTypeModelNotFound:      {"model not found", 404, false},
	ErrTypeContentFiltered:    {"content filtered", 400, false},
}

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	if t, ok := traits[e]; ok {
		return t.label
	}
	return "unknown error"
}

// Error is a typed API failure with enough context to log, retry, or give
// up. Adapters may build one directly when no constructor fits.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Provider   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is matches errors of the same type, so errors.Is works across instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable reports whether retrying the call can succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

func newError(errType ErrorType, provider, message string) *Error {
	t := traits[errType]
	return &Error{
		Type:       errType,
		Message:    message,
		StatusCode: t.status,
		Retryable:  t.retryable,
		Provider:   provider,
	}
}

// NewAuthenticationError reports a rejected or missing credential.
func NewAuthenticationError(provider, message string) *Error {
	return newError(ErrTypeAuthentication, provider, message)
}

// NewRateLimitError reports a throttled request.
func NewRateLimitError(provider, message string) *Error {
	return newError(ErrTypeRateLimit, provider, message)
}

// NewServiceUnavailableError reports a provider-side outage.
func NewServiceUnavailableError(provider, message string) *Error {
	return newError(ErrTypeServiceUnavailable, provider, message)
}

// NewInvalidRequestError reports a request the provider rejected as
// malformed.
func NewInvalidRequestError(provider, message string) *Error {
	return newError(ErrTypeInvalidRequest, provider, message)
}

// NewTimeoutError reports a request that got no response in time.
func NewTimeoutError(provider, message string) *Error {
	return newError(ErrTypeTimeout, provider, message)
}

// NewModelNotFoundError reports an unknown model or deployment name.
func NewModelNotFoundError(provider, message string) *Error {
	return newError(ErrTypeModelNotFound, provider, message)
}

// NewContentFilteredError reports a prompt the provider's content filter
// refused to process.
func NewContentFilteredError(provider, message string) *Error {
	return newError(ErrTypeContentFiltered, provider, message)
}
