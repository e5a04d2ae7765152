package schoolAuth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/schoolAuth/jwt"
	"github.com/MrEthical07/schoolAuth/role"
)

// ParseBearer extracts the token from an Authorization header value. The
// scheme match ignores case; the token must be non-empty and contain no
// spaces.
func ParseBearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate verifies the bearer token in authorizationHeader, reloads the
// account named by its subject, and rejects disabled or suspended accounts.
// Only the subject is taken from the token; role and school come from the
// live record.
//
// Errors: [ErrMissingBearer], [ErrConfiguration], [ErrSessionInvalid],
// [ErrAccountNotFound], [ErrAccountDisabled], [ErrAccountSuspended],
// [ErrInternal].
func (e *Engine) Authenticate(ctx context.Context, authorizationHeader string) (*AuthResult, error) {
	if e == nil || e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricAuthenticateLatency, start)

	result, err := e.authenticate(ctx, authorizationHeader)
	if err != nil {
		e.metricInc(MetricAuthenticateFailure)
		var account *Account
		if result != nil {
			account = result.Account
		}
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, account, err, nil)
		return nil, err
	}

	e.metricInc(MetricAuthenticateSuccess)
	return result, nil
}

func (e *Engine) authenticate(ctx context.Context, header string) (*AuthResult, error) {
	token, ok := ParseBearer(header)
	if !ok {
		return nil, ErrMissingBearer
	}

	claims, err := e.tokens.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrSecretMissing):
			e.logger.ErrorContext(ctx, "token signing secret not configured")
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	account, err := e.accounts.GetAccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		e.logger.ErrorContext(ctx, "account lookup failed", "account_id", claims.Subject, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	result := &AuthResult{Account: account, Token: token, Claims: claims}
	if statusErr := accountStatusError(account.Status); statusErr != nil {
		return result, statusErr
	}
	return result, nil
}

// Authorize reports whether result's account role is in allowed. It has no
// side effects; see [Engine.AuthorizeContext] for the audited variant.
func (e *Engine) Authorize(result *AuthResult, allowed role.Set) error {
	if result == nil || result.Account == nil {
		return ErrUnauthorized
	}
	if !allowed.Has(result.Account.Role) {
		return ErrRoleForbidden
	}
	return nil
}

// AuthorizeContext is [Engine.Authorize] plus metrics and an audit event on
// denial.
func (e *Engine) AuthorizeContext(ctx context.Context, result *AuthResult, allowed role.Set) error {
	err := e.Authorize(result, allowed)
	if err == nil {
		return nil
	}
	e.metricInc(MetricRoleDenied)
	var account *Account
	if result != nil {
		account = result.Account
	}
	e.emitAudit(ctx, auditEventRoleDenied, false, account, err, func() map[string]string {
		return map[string]string{"allowed": allowed.String()}
	})
	return err
}
