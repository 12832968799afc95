package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the resolver and the gateway.
type ErrorKind string

const (
	KindUnknown           ErrorKind = "unknown"
	KindMissingCredential ErrorKind = "missing_credential"
	KindServiceDisabled   ErrorKind = "service_disabled"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindUpstream          ErrorKind = "upstream_error"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// maxBodyInMessage bounds how much of a provider body ends up in Error().
const maxBodyInMessage = 256

var (
	ErrMissingCredential = &Error{Kind: KindMissingCredential}
	ErrServiceDisabled   = &Error{Kind: KindServiceDisabled}
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
)

// Error is the typed failure shared by the geo resolver and the gateway.
// errors.Is matches on Kind, so the sentinels above can be used as targets.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

// NewUpstreamError reports a non-200 answer, or a transport failure when
// statusCode is 0.
func NewUpstreamError(statusCode int, body string, cause error) *Error {
	return &Error{Kind: KindUpstream, StatusCode: statusCode, Body: body, Err: cause}
}

// NewMalformedResponseError reports a 200 answer whose body could not be decoded.
func NewMalformedResponseError(statusCode int, body string, cause error) *Error {
	return &Error{Kind: KindMalformedResponse, StatusCode: statusCode, Body: body, Err: cause}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingCredential:
		return "openweather api key is not configured"
	case KindServiceDisabled:
		return "location services are disabled"
	case KindPermissionDenied:
		return "location permission denied"
	case KindUpstream:
		if e.StatusCode == 0 {
			return fmt.Sprintf("weather provider request failed: %v", e.Err)
		}
		return fmt.Sprintf("weather provider returned status %d: %s", e.StatusCode, truncate(e.Body))
	case KindMalformedResponse:
		return fmt.Sprintf("malformed weather response (status %d): %v", e.StatusCode, e.Err)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrorInfo is the displayable form of a failure kept in the query state.
type ErrorInfo struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode,omitempty"`
}

// InfoFromError converts any error into an ErrorInfo.
func InfoFromError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Kind: KindUnknown, Message: "unknown error"}
	}

	info := ErrorInfo{Kind: KindOf(err), Message: err.Error()}
	var e *Error
	if errors.As(err, &e) {
		info.StatusCode = e.StatusCode
	}
	return info
}

func truncate(s string) string {
	if len(s) <= maxBodyInMessage {
		return s
	}
	return s[:maxBodyInMessage] + "..."
}
