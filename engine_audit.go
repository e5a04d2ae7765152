package schoolAuth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess                 = "login_success"
	auditEventLoginFailure                 = "login_failure"
	auditEventLoginRateLimited             = "login_rate_limited"
	auditEventAuthenticateFailure          = "authenticate_failure"
	auditEventRoleDenied                   = "role_denied"
	auditEventTenantDenied                 = "tenant_denied"
	auditEventPasswordChangeSuccess        = "password_change_success"
	auditEventPasswordChangeInvalidCurrent = "password_change_invalid_current"
	auditEventPasswordChangeReuse          = "password_change_reuse_attempt"
	auditEventPasswordChangeFailure        = "password_change_failure"
)

// AuditErrorCode is the error field of an [AuditEvent].
type AuditErrorCode string

const (
	auditErrMissingBearer      AuditErrorCode = "missing_bearer"
	auditErrSessionInvalid     AuditErrorCode = "session_invalid"
	auditErrAccountNotFound    AuditErrorCode = "account_not_found"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrAccountDisabled    AuditErrorCode = "account_disabled"
	auditErrAccountSuspended   AuditErrorCode = "account_suspended"
	auditErrRoleForbidden      AuditErrorCode = "role_forbidden"
	auditErrSelectorMissing    AuditErrorCode = "school_code_missing"
	auditErrTenantNotFound     AuditErrorCode = "school_not_found"
	auditErrTenantUnassigned   AuditErrorCode = "school_unassigned"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrPasswordReuse      AuditErrorCode = "password_reuse"
	auditErrConfiguration      AuditErrorCode = "configuration"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	account *Account,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		IP:        ClientIPFromContext(ctx),
		RequestID: RequestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if account != nil {
		event.AccountID = account.ID
		event.TenantID = account.TenantID
		if account.Role.Valid() {
			event.Role = account.Role.String()
		}
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrConfiguration):
		return auditErrConfiguration
	case errors.Is(err, ErrMissingBearer):
		return auditErrMissingBearer
	case errors.Is(err, ErrSessionInvalid):
		return auditErrSessionInvalid
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.Is(err, ErrAccountSuspended):
		return auditErrAccountSuspended
	case errors.Is(err, ErrRoleForbidden):
		return auditErrRoleForbidden
	case errors.Is(err, ErrTenantSelectorMissing):
		return auditErrSelectorMissing
	case errors.Is(err, ErrTenantNotFound):
		return auditErrTenantNotFound
	case errors.Is(err, ErrTenantUnassigned):
		return auditErrTenantUnassigned
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	default:
		return auditErrInternal
	}
}
