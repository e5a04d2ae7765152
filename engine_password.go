package schoolAuth

import (
	"context"
	"errors"
	"fmt"
)

// ChangePassword replaces the account password after checking current
// against the stored password or the temporary one. The provider clears the
// temporary password and reset flag and activates invited accounts.
//
// Errors: [ErrUnauthorized], [ErrAccountNotFound], [ErrAccountDisabled],
// [ErrAccountSuspended], [ErrInvalidCredentials], [ErrPasswordPolicy],
// [ErrPasswordReuse], [ErrInternal].
func (e *Engine) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}
	if accountID == "" {
		return ErrUnauthorized
	}

	account, err := e.accounts.GetAccountByID(ctx, accountID)
	if err != nil || account == nil {
		if err == nil || errors.Is(err, ErrAccountNotFound) {
			err = ErrAccountNotFound
		} else {
			e.logger.ErrorContext(ctx, "account lookup failed", "account_id", accountID, "error", err)
			err = fmt.Errorf("%w: %v", ErrInternal, err)
		}
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, &Account{ID: accountID}, err, nil)
		return err
	}

	if statusErr := accountStatusError(account.Status); statusErr != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, account, statusErr, func() map[string]string {
			return map[string]string{"reason": "account_status"}
		})
		return statusErr
	}

	if !e.verifyHash(ctx, current, account.PasswordHash) && !e.verifyHash(ctx, current, account.TemporaryPasswordHash) {
		e.metricInc(MetricPasswordChangeInvalidCurrent)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidCurrent, false, account, ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if len(next) < e.config.Password.MinLength || len(next) > e.config.Password.MaxPasswordBytes {
		e.metricInc(MetricPasswordChangePolicyRejected)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, account, ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"reason": "length"}
		})
		return ErrPasswordPolicy
	}

	if next == current || e.verifyHash(ctx, next, account.PasswordHash) {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, account, ErrPasswordReuse, nil)
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(next)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, account, ErrPasswordPolicy, func() map[string]string {
			return map[string]string{"reason": "hash_policy"}
		})
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}

	if err := e.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			e.logger.ErrorContext(ctx, "password update failed", "account_id", account.ID, "error", err)
			err = fmt.Errorf("%w: %v", ErrInternal, err)
		}
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, account, err, func() map[string]string {
			return map[string]string{"reason": "update_failed"}
		})
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, account, nil, nil)
	return nil
}
