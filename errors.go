package schoolAuth

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a deployment fault such as a missing signing secret.
	ErrConfiguration = errors.New("auth configuration error")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInternal marks unexpected failures such as a store outage.
	ErrInternal = errors.New("internal error")

	// ErrMissingBearer is returned when no "Bearer <token>" header is present.
	ErrMissingBearer = errors.New("missing bearer token")
	// ErrSessionInvalid is returned for expired, malformed or forged tokens.
	ErrSessionInvalid = errors.New("session invalid or expired")
	// ErrAccountNotFound is returned when the token subject or login identifier has no account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUnauthorized is returned when an operation needs an authenticated account and has none.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned by Login for an unknown identifier or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled is returned for accounts with status DISABLED.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountSuspended is returned for accounts with status SUSPENDED.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrRoleForbidden is returned when the account role is outside the allowed set.
	ErrRoleForbidden = errors.New("role not permitted")

	// ErrTenantSelectorMissing is returned when a super admin omits the school code.
	ErrTenantSelectorMissing = errors.New("school code required")
	// ErrTenantNotFound is returned when the selected school does not exist.
	ErrTenantNotFound = errors.New("school not found")
	// ErrTenantUnassigned is returned when a school-scoped account has no school.
	ErrTenantUnassigned = errors.New("account has no school assigned")

	// ErrLoginRateLimited is returned by Login while the client address is blocked.
	ErrLoginRateLimited = errors.New("login rate limited")

	// ErrPasswordPolicy is returned when a new password violates the length policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is returned when the new password equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")

	// ErrInvalidRequest marks malformed client input at the transport layer.
	ErrInvalidRequest = errors.New("invalid request")
)

// RateLimitError is returned by Login while the caller's address is blocked.
// It wraps [ErrLoginRateLimited].
type RateLimitError struct {
	RetryAfterMinutes int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %d minutes", ErrLoginRateLimited, e.RetryAfterMinutes)
}

func (e *RateLimitError) Unwrap() error {
	return ErrLoginRateLimited
}

// ErrorKind classifies failures for transport mapping.
type ErrorKind uint8

const (
	KindInternal ErrorKind = iota
	KindConfiguration
	KindUnauthorized
	KindForbidden
	KindBadRequest
	KindNotFound
	KindConflict
	KindRateLimited
)

var kindNames = [...]string{
	KindInternal:      "internal",
	KindConfiguration: "configuration",
	KindUnauthorized:  "unauthorized",
	KindForbidden:     "forbidden",
	KindBadRequest:    "bad_request",
	KindNotFound:      "not_found",
	KindConflict:      "conflict",
	KindRateLimited:   "rate_limited",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindOf classifies err. Unrecognised errors are [KindInternal].
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrInternal), errors.Is(err, ErrEngineNotReady):
		return KindInternal
	case errors.Is(err, ErrMissingBearer),
		errors.Is(err, ErrSessionInvalid),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrAccountSuspended),
		errors.Is(err, ErrRoleForbidden):
		return KindForbidden
	case errors.Is(err, ErrTenantSelectorMissing),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, ErrInvalidRequest):
		return KindBadRequest
	case errors.Is(err, ErrTenantNotFound):
		return KindNotFound
	case errors.Is(err, ErrTenantUnassigned):
		return KindConflict
	case errors.Is(err, ErrLoginRateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}

// ErrorCode returns the client-facing code for err. Codes for failures that
// could reveal whether an account exists are deliberately shared, and server
// faults all map to "server_error".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrInternal), errors.Is(err, ErrEngineNotReady):
		return "server_error"
	case errors.Is(err, ErrMissingBearer):
		return "missing_bearer_token"
	case errors.Is(err, ErrSessionInvalid), errors.Is(err, ErrAccountNotFound):
		return "session_invalid"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrAccountSuspended):
		return "account_suspended"
	case errors.Is(err, ErrRoleForbidden):
		return "forbidden"
	case errors.Is(err, ErrTenantSelectorMissing):
		return "school_code_required"
	case errors.Is(err, ErrTenantNotFound):
		return "school_not_found"
	case errors.Is(err, ErrTenantUnassigned):
		return "school_unassigned"
	case errors.Is(err, ErrLoginRateLimited):
		return "login_rate_limited"
	case errors.Is(err, ErrPasswordPolicy):
		return "password_policy"
	case errors.Is(err, ErrPasswordReuse):
		return "password_reuse"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "server_error"
	}
}
