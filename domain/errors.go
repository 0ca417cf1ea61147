package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure for callers and transports.
type Kind int

const (
	KindInternal Kind = iota
	KindConflict
	KindNotFound
	KindInvalid
	KindExpired
	KindUnauthorized
	KindForbidden
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindExpired:
		return "expired"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is a typed failure with a human message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf classifies err. Anything that is not a domain error is internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError extracts the domain error carried by err.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Registration errors
var (
	ErrAlreadyRegistered         = newError(KindConflict, "ALREADY_REGISTERED", "You're already registered. Try logging in instead.")
	ErrPendingVerificationExists = newError(KindConflict, "PENDING_VERIFICATION_EXISTS", "This email has been registered as pending. Awaiting verification.")
	ErrPendingUserNotFound       = newError(KindNotFound, "PENDING_USER_NOT_FOUND", "Pending user not found")
)

// Authentication errors
var (
	ErrUserNotFound      = newError(KindNotFound, "USER_NOT_FOUND", "User not found")
	ErrNotVerified       = newError(KindForbidden, "NOT_VERIFIED", "Please verify your account to continue.")
	ErrIncorrectPassword = newError(KindInvalid, "INCORRECT_PASSWORD", "Incorrect Password")
	ErrAccountBanned     = newError(KindForbidden, "ACCOUNT_BANNED", "This account has been suspended.")
)

// Session errors
var (
	ErrMissingHeader        = newError(KindUnauthorized, "MISSING_HEADER", "Missing authorization header")
	ErrInvalidAccessToken   = newError(KindUnauthorized, "INVALID_TOKEN", "Invalid access token")
	ErrInvalidRefreshToken  = newError(KindUnauthorized, "INVALID_TOKEN", "Invalid refresh token")
	ErrAccessTokenExpired   = newError(KindExpired, "TOKEN_EXPIRED", "Access token has expired")
	ErrRefreshTokenExpired  = newError(KindExpired, "TOKEN_EXPIRED", "Refresh token has expired")
	ErrSessionInactive      = newError(KindUnauthorized, "SESSION_INACTIVE", "Session is inactive")
	ErrSessionNotFound      = newError(KindNotFound, "SESSION_NOT_FOUND", "Session not found")
	ErrInsufficientRole     = newError(KindForbidden, "ACCESS_DENIED", "Access Denied")
	ErrAuthorizationFailure = newError(KindInternal, "AUTHORIZATION_FAILURE", "Authorization check failed")
)

// Password reset errors
var (
	ErrCodeNotFound  = newError(KindNotFound, "CODE_NOT_FOUND", "Verification code not found or has expired.")
	ErrCodeExpired   = newError(KindExpired, "CODE_EXPIRED", "Verification code expired.")
	ErrTokenNotFound = newError(KindNotFound, "TOKEN_NOT_FOUND", "Token not found")
	ErrTokenExpired  = newError(KindExpired, "TOKEN_EXPIRED", "Token expired")
	ErrSamePassword  = newError(KindInvalid, "SAME_PASSWORD", "Your new password cannot be the same as your current password.")
)

// Validation errors
var (
	ErrWeakPassword = newError(KindInvalid, "WEAK_PASSWORD", fmt.Sprintf("Password must be at least %d characters long and contain at least one digit.", MinPasswordLength))
	ErrInvalidRole  = newError(KindInvalid, "INVALID_ROLE", "Role must be ADMIN or CUSTOMER.")
	ErrInvalidInput = newError(KindInvalid, "INVALID_INPUT", "Invalid request.")
)

// ErrRateLimited is matched by every RateLimitError.
var ErrRateLimited = newError(KindRateLimited, "RATE_LIMITED", "Too many requests. Please try again later.")

// ErrDuplicateKey is returned by repositories when a unique constraint rejects a write.
var ErrDuplicateKey = newError(KindConflict, "DUPLICATE_KEY", "Resource already exists")

// RateLimitError tells the caller how long to wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s Retry in %d seconds.", ErrRateLimited.Message, int64(e.RetryAfter.Seconds()))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
