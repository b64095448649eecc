package oauth2

import (
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of protocol errors the token core can report.
type ErrorKind int

const (
	InvalidRequest ErrorKind = iota + 1
	InvalidClient
	InvalidGrant
	RedirectURIMismatch
	UnsupportedGrantType
	InvalidScope
	AccessDenied
)

// Error codes as defined in RFC 6749 Section 5.2 (redirect_uri_mismatch is the
// draft-era code kept by many servers for a failed redirect URI comparison).
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeRedirectURIMismatch  = "redirect_uri_mismatch"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeAccessDenied         = "access_denied"
)

var kindCodes = map[ErrorKind]string{
	InvalidRequest:       ErrorCodeInvalidRequest,
	InvalidClient:        ErrorCodeInvalidClient,
	InvalidGrant:         ErrorCodeInvalidGrant,
	RedirectURIMismatch:  ErrorCodeRedirectURIMismatch,
	UnsupportedGrantType: ErrorCodeUnsupportedGrantType,
	InvalidScope:         ErrorCodeInvalidScope,
	AccessDenied:         ErrorCodeAccessDenied,
}

// Code returns the RFC 6749 error code string for the kind.
func (k ErrorKind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return fmt.Sprintf("unknown_error_%d", int(k))
}

func (k ErrorKind) String() string {
	return k.Code()
}

// StatusCode returns the HTTP status a token endpoint responds with.
func (k ErrorKind) StatusCode() int {
	switch k {
	case InvalidClient:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Sentinels for errors.Is comparisons. Any *Error of the same kind matches.
var (
	ErrInvalidRequest       = &Error{Kind: InvalidRequest}
	ErrInvalidClient        = &Error{Kind: InvalidClient}
	ErrInvalidGrant         = &Error{Kind: InvalidGrant}
	ErrRedirectURIMismatch  = &Error{Kind: RedirectURIMismatch}
	ErrUnsupportedGrantType = &Error{Kind: UnsupportedGrantType}
	ErrInvalidScope         = &Error{Kind: InvalidScope}
	ErrAccessDenied         = &Error{Kind: AccessDenied}
)

// Error represents an RFC 6749 compliant OAuth error. It is the only failure
// value the grant handlers produce.
type Error struct {
	Kind        ErrorKind `json:"-"`
	Description string    `json:"-"`
}

// NewError creates a new Error of the given kind.
func NewError(kind ErrorKind, description string) *Error {
	return &Error{Kind: kind, Description: description}
}

// NewErrorf creates a new Error with a formatted description.
func NewErrorf(kind ErrorKind, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Description)
	}
	return e.Kind.Code()
}

// Code returns the RFC 6749 error code.
func (e *Error) Code() string {
	return e.Kind.Code()
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// ErrorResponse is the RFC 6749 Section 5.2 response body.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Response returns the serialisable body for the error.
func (e *Error) Response() ErrorResponse {
	return ErrorResponse{
		Error:            e.Kind.Code(),
		ErrorDescription: e.Description,
	}
}
