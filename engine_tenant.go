package schoolAuth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/schoolAuth/role"
)

// ResolveTenant derives the school a request operates on.
//
// Super admins must name a school through selector; it is looked up in the
// Tenant store. Every other role operates on the school recorded on its
// account, and selector is ignored. The token's school claims are never
// consulted.
//
// Errors: [ErrUnauthorized], [ErrTenantSelectorMissing], [ErrTenantNotFound],
// [ErrTenantUnassigned], [ErrConfiguration], [ErrInternal].
func (e *Engine) ResolveTenant(ctx context.Context, account *Account, selector string) (*TenantContext, error) {
	tc, err := e.resolveTenant(ctx, account, selector)
	if err != nil {
		e.metricInc(MetricTenantFailure)
		e.emitAudit(ctx, auditEventTenantDenied, false, account, err, func() map[string]string {
			if selector == "" {
				return nil
			}
			return map[string]string{"selector": selector}
		})
		return nil, err
	}
	e.metricInc(MetricTenantResolved)
	return tc, nil
}

func (e *Engine) resolveTenant(ctx context.Context, account *Account, selector string) (*TenantContext, error) {
	if account == nil {
		return nil, ErrUnauthorized
	}

	if account.Role != role.SuperAdmin {
		if !account.HasTenant() {
			return nil, ErrTenantUnassigned
		}
		return &TenantContext{
			ID:   account.TenantID,
			Code: account.TenantCode,
			Name: account.TenantName,
		}, nil
	}

	code := strings.TrimSpace(selector)
	if code == "" {
		return nil, ErrTenantSelectorMissing
	}
	if e.tenants == nil {
		e.logger.ErrorContext(ctx, "tenant provider not configured")
		return nil, fmt.Errorf("%w: tenant provider not configured", ErrConfiguration)
	}

	tenant, err := e.tenants.GetTenantByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, ErrTenantNotFound
		}
		e.logger.ErrorContext(ctx, "tenant lookup failed", "school_code", code, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}

	return &TenantContext{ID: tenant.ID, Code: tenant.Code, Name: tenant.Name}, nil
}
