// internal/apperr/apperr.go
//
// Typed service errors with a stable code and HTTP status.
//
// Context
// -------
// Registry, workspace, and HTTP layers all speak the same error taxonomy.
// An *Error carries the machine code clients switch on, the HTTP status the
// API layer should send, a human message, and optionally the underlying
// cause.  `Details` is the cause rendered as text; the HTTP layer decides
// whether to expose it (never in production).
//
// Usage
// -----
//
//	return apperr.SlugExists.Wrap(err)
//	if errors.Is(err, apperr.NoAppsConfigured) { … }
//
// Notes
// -----
//   - errors.Is compares codes, so a wrapped copy still matches its
//     package-level sentinel.
package apperr

import (
	"errors"
	"net/http"
)

// Error is the service error shape.
type Error struct {
	Code    string
	Status  int
	Message string
	Err     error
}

// New builds a sentinel.
func New(code string, status int, msg string) *Error {
	return &Error{Code: code, Status: status, Message: msg}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Details returns the cause as text, or "" when there is none.
func (e *Error) Details() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

//
// Sentinels
//

var (
	InvalidJSON          = New("INVALID_JSON", http.StatusBadRequest, "Request body is not valid JSON")
	InvalidRequest       = New("INVALID_REQUEST", http.StatusBadRequest, "Invalid request")
	InvalidPlatformData  = New("INVALID_PLATFORM_DATA", http.StatusBadRequest, "Invalid platform data")
	NoAppsConfigured     = New("NO_APPS_CONFIGURED", http.StatusBadRequest, "Register at least one app before creating deep links")
	Unauthorized         = New("UNAUTHORIZED", http.StatusUnauthorized, "Missing or malformed Authorization header")
	InvalidAPIKey        = New("INVALID_API_KEY", http.StatusUnauthorized, "Invalid API key")
	InvalidClientKey     = New("INVALID_CLIENT_KEY", http.StatusUnauthorized, "Invalid client key")
	NotFound             = New("NOT_FOUND", http.StatusNotFound, "Not found")
	SlugExists           = New("SLUG_ALREADY_EXISTS", http.StatusConflict, "Slug is already in use")
	RateLimited          = New("RATE_LIMITED", http.StatusTooManyRequests, "Too many requests")
	SlugGenerationFailed = New("SLUG_GENERATION_FAILED", http.StatusInternalServerError, "Could not allocate a unique slug")
	CreationFailed       = New("DEEPLINK_CREATION_FAILED", http.StatusInternalServerError, "Failed to create deep link")
	ServerError          = New("SERVER_ERROR", http.StatusInternalServerError, "Internal server error")
)

// From converts any error into an *Error.  Unknown errors become
// ServerError wrapping the original.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ServerError.Wrap(err)
}
