package miniauth

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by stores and the Authenticator.
var (
	// ErrSessionNotFound is returned when no session row matches the given id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUserNotFound is returned when a user row cannot be located.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned when no user matches an email and
	// password hash pair. The attempted email is logged server-side; the
	// detail never reaches the client.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error codes surfaced in JSON error bodies at the HTTP boundary.
const (
	ErrCodeMissingField = "missing_field"
	ErrCodeInvalidCreds = "invalid_credentials"
	ErrCodeOTPMismatch  = "otp_mismatch"
	ErrCodeParseError   = "parse_error"
)

// AuthError is a client-facing authentication error with a machine-readable
// code and the form field it relates to (if any).
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// OAuthErrorCode enumerates the failure points of the OAuth sign-in flow.
// Callers match on the code rather than inspecting provider error types.
type OAuthErrorCode string

const (
	// OAuthErrMissingParams: code/state query params or state/verifier cookies absent.
	OAuthErrMissingParams OAuthErrorCode = "missing_params"
	// OAuthErrStateMismatch: returned state differs from the stored state cookie.
	OAuthErrStateMismatch OAuthErrorCode = "state_mismatch"
	// OAuthErrExchangeFailed: authorization-code exchange rejected or unreachable.
	OAuthErrExchangeFailed OAuthErrorCode = "exchange_failed"
	// OAuthErrProfileFetch: userinfo endpoint rejected us or was unreachable.
	OAuthErrProfileFetch OAuthErrorCode = "profile_fetch"
)

// OAuthError tags a failure from the OAuth sign-in state machine.
type OAuthError struct {
	Code OAuthErrorCode
	Err  error
}

func (e *OAuthError) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *OAuthError) Unwrap() error { return e.Err }

// NewOAuthError wraps err with a flow position code.
func NewOAuthError(code OAuthErrorCode, err error) *OAuthError {
	return &OAuthError{Code: code, Err: err}
}
