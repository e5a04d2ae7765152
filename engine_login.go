package schoolAuth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/schoolAuth/jwt"
)

// Login verifies identifier and password and mints a session token.
//
// The failed-login ledger for the caller's address (see [WithClientIP]) is
// consulted first; a blocked address gets a [*RateLimitError] without any
// store lookup. Unknown identifiers and wrong passwords record a failure and
// return [ErrInvalidCredentials]. Disabled and suspended accounts are
// rejected after the password check without recording a failure. A
// successful sign-in clears the ledger for the address.
func (e *Engine) Login(ctx context.Context, identifier, secret string) (*LoginResult, error) {
	if e == nil || e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observe(MetricLoginLatency, start)

	addr := limiterKey(ctx)
	identifier = NormalizeIdentifier(identifier)

	if err := e.checkLogin(ctx, addr); err != nil {
		return nil, err
	}

	if identifier == "" || secret == "" {
		return nil, e.loginFailed(ctx, addr, nil, "empty_credentials")
	}

	account, err := e.accounts.GetAccountByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, e.loginFailed(ctx, addr, nil, "account_not_found")
		}
		e.logger.ErrorContext(ctx, "account lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if account == nil {
		return nil, e.loginFailed(ctx, addr, nil, "account_not_found")
	}

	usedMain := e.verifyHash(ctx, secret, account.PasswordHash)
	usedTemporary := !usedMain && e.verifyHash(ctx, secret, account.TemporaryPasswordHash)
	if !usedMain && !usedTemporary {
		return nil, e.loginFailed(ctx, addr, account, "password_mismatch")
	}

	if statusErr := accountStatusError(account.Status); statusErr != nil {
		e.metricInc(MetricLoginAccountBlocked)
		e.emitAudit(ctx, auditEventLoginFailure, false, account, statusErr, func() map[string]string {
			return map[string]string{"reason": "account_status"}
		})
		return nil, statusErr
	}

	if e.limiter != nil {
		if err := e.limiter.Clear(ctx, addr); err != nil {
			e.metricInc(MetricLimiterUnavailable)
			e.logger.WarnContext(ctx, "login limiter reset failed", "addr", addr, "error", err)
		}
	}

	token, claims, err := e.tokens.Mint(jwt.Subject{
		ID:         account.ID,
		Role:       account.Role,
		TenantID:   account.TenantID,
		TenantCode: account.TenantCode,
	})
	if err != nil {
		if errors.Is(err, jwt.ErrSecretMissing) {
			e.logger.ErrorContext(ctx, "token signing secret not configured")
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		e.logger.ErrorContext(ctx, "token mint failed", "account_id", account.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if usedMain {
		e.upgradeHash(ctx, account, secret)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account, nil, func() map[string]string {
		if usedTemporary {
			return map[string]string{"credential": "temporary"}
		}
		return nil
	})

	return &LoginResult{
		Token:                 token,
		ExpiresAt:             claims.ExpiresAt.Time,
		Account:               account,
		RequiresPasswordReset: account.RequiresPasswordReset || usedTemporary,
	}, nil
}

// CheckLogin reports whether the caller's address may attempt a sign-in.
// It records nothing; a blocked address gets a [*RateLimitError].
func (e *Engine) CheckLogin(ctx context.Context) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.checkLogin(ctx, limiterKey(ctx))
}

// checkLogin fails closed when the ledger is unreachable.
func (e *Engine) checkLogin(ctx context.Context, addr string) error {
	if e.limiter == nil {
		return nil
	}
	decision, err := e.limiter.CheckAllowed(ctx, addr)
	if err != nil {
		e.metricInc(MetricLimiterUnavailable)
		e.logger.ErrorContext(ctx, "login limiter check failed", "addr", addr, "error", err)
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if decision.Allowed {
		return nil
	}
	e.metricInc(MetricLoginRateLimited)
	e.emitAudit(ctx, auditEventLoginRateLimited, false, nil, ErrLoginRateLimited, func() map[string]string {
		return map[string]string{
			"retry_after_minutes": strconv.Itoa(decision.RetryAfterMinutes),
		}
	})
	return &RateLimitError{RetryAfterMinutes: decision.RetryAfterMinutes}
}

// NormalizeIdentifier trims and lower-cases an email or username.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (e *Engine) loginFailed(ctx context.Context, addr string, account *Account, reason string) error {
	if e.limiter != nil {
		if err := e.limiter.RecordFailure(ctx, addr); err != nil {
			e.metricInc(MetricLimiterUnavailable)
			e.logger.WarnContext(ctx, "login limiter record failed", "addr", addr, "error", err)
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, account, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return ErrInvalidCredentials
}

// verifyHash treats an empty or unreadable stored hash as a mismatch.
func (e *Engine) verifyHash(ctx context.Context, secret, encoded string) bool {
	if encoded == "" {
		return false
	}
	ok, err := e.hasher.Verify(secret, encoded)
	if err != nil {
		e.logger.WarnContext(ctx, "stored password hash unreadable", "error", err)
		return false
	}
	return ok
}

// upgradeHash re-hashes with current parameters. Best effort; it never
// fails the sign-in.
func (e *Engine) upgradeHash(ctx context.Context, account *Account, secret string) {
	upgrader, ok := e.accounts.(PasswordHashUpgrader)
	if !ok {
		return
	}
	needs, err := e.hasher.NeedsUpgrade(account.PasswordHash)
	if err != nil || !needs {
		return
	}
	hash, err := e.hasher.Hash(secret)
	if err != nil {
		e.logger.WarnContext(ctx, "password hash upgrade generation failed", "account_id", account.ID, "error", err)
		return
	}
	if err := upgrader.UpgradePasswordHash(ctx, account.ID, hash); err != nil {
		e.logger.WarnContext(ctx, "password hash upgrade update failed", "account_id", account.ID, "error", err)
	}
}

func accountStatusError(status AccountStatus) error {
	switch status {
	case AccountDisabled:
		return ErrAccountDisabled
	case AccountSuspended:
		return ErrAccountSuspended
	default:
		return nil
	}
}
