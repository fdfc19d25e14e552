// Package errors defines the error taxonomy for the documentation gateway.
// Configuration errors are fatal at startup, flow errors are recoverable
// per browser session, and request errors map to HTTP 401/403 responses.
package errors

import (
	"errors"
	"net/http"
)

// Configuration errors. The hosting process must refuse to start when any
// of these surface during registry construction or validation.
var (
	ErrDuplicateOperation  = errors.New("duplicate_operation")
	ErrRegistryClosed      = errors.New("registry_closed")
	ErrDuplicateScheme     = errors.New("duplicate_scheme")
	ErrInvalidSchemeConfig = errors.New("invalid_scheme_config")
	ErrUnknownScheme       = errors.New("unknown_scheme")
)

// Flow errors. Surfaced to the browser as a failed authorization attempt;
// the user retries by starting a fresh flow instance.
var (
	ErrScopeNotAllowed       = errors.New("scope_not_allowed")
	ErrRedirectURINotAllowed = errors.New("redirect_uri_not_allowed")
	ErrFlowNotFound          = errors.New("flow_not_found")
	ErrStateMismatch         = errors.New("state_mismatch")
	ErrTokenMissing          = errors.New("token_missing")
	ErrMalformedToken        = errors.New("malformed_token")
	ErrFlowAlreadyCompleted  = errors.New("flow_already_completed")
)

// Request-time authorization errors. Every failure path denies; nothing in
// this package ever allows by default.
var (
	ErrMissingToken      = errors.New("missing_token")
	ErrInvalidToken      = errors.New("invalid_token")
	ErrInsufficientScope = errors.New("insufficient_scope")
)

// Descriptions holds the client-safe description per error. Internal
// validation detail (parse errors, signature failures, the token itself)
// must never reach a response body.
var Descriptions = map[error]string{
	ErrDuplicateOperation:    "an operation with the same method and path is already registered",
	ErrRegistryClosed:        "the registry is sealed and no longer accepts registrations",
	ErrDuplicateScheme:       "a security scheme with the same name is already defined",
	ErrInvalidSchemeConfig:   "the security scheme configuration is invalid",
	ErrUnknownScheme:         "the referenced security scheme is not defined",
	ErrScopeNotAllowed:       "a requested scope is not declared by the security scheme",
	ErrRedirectURINotAllowed: "the redirect URI is not registered for this client",
	ErrFlowNotFound:          "the authorization flow does not exist or has expired",
	ErrStateMismatch:         "the returned state does not match the issued state",
	ErrTokenMissing:          "the authorization response contains no access token",
	ErrMalformedToken:        "the returned access token could not be parsed",
	ErrFlowAlreadyCompleted:  "the authorization flow has already finished",
	ErrMissingToken:          "missing authorization header",
	ErrInvalidToken:          "invalid access token",
	ErrInsufficientScope:     "token lacks required scope",
}

// StatusCodes maps surfaced errors to HTTP status codes. Configuration
// errors are absent on purpose: they abort startup instead of producing a
// response.
var StatusCodes = map[error]int{
	ErrScopeNotAllowed:       http.StatusBadRequest,
	ErrRedirectURINotAllowed: http.StatusBadRequest,
	ErrFlowNotFound:          http.StatusBadRequest,
	ErrStateMismatch:         http.StatusBadRequest,
	ErrTokenMissing:          http.StatusBadRequest,
	ErrMalformedToken:        http.StatusBadRequest,
	ErrFlowAlreadyCompleted:  http.StatusBadRequest,
	ErrMissingToken:          http.StatusUnauthorized,
	ErrInvalidToken:          http.StatusUnauthorized,
	ErrInsufficientScope:     http.StatusForbidden,
}

// Response is the JSON body written for a surfaced error.
type Response struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// NewResponse builds the client-facing response for err. Unknown errors
// collapse to a generic invalid_token denial with status 401: the gateway
// fails closed rather than leak why validation broke.
func NewResponse(err error) (int, *Response) {
	for known := range StatusCodes {
		if errors.Is(err, known) {
			code := errorCode(known)
			return StatusCodes[known], &Response{Error: code, Description: Descriptions[known]}
		}
	}
	return http.StatusUnauthorized, &Response{
		Error:       errorCode(ErrInvalidToken),
		Description: Descriptions[ErrInvalidToken],
	}
}

// errorCode reports the wire error code. Both missing and invalid tokens
// present as plain "unauthorized" so a caller cannot probe which check
// rejected them.
func errorCode(err error) string {
	switch err {
	case ErrMissingToken, ErrInvalidToken:
		return "unauthorized"
	default:
		return err.Error()
	}
}

// New is re-exported so callers inside the module do not need a second
// errors import.
func New(text string) error { return errors.New(text) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }
