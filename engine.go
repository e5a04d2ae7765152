package schoolAuth

import (
	"context"
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/schoolAuth/internal/audit"
	"github.com/MrEthical07/schoolAuth/jwt"
	"github.com/MrEthical07/schoolAuth/password"
)

// Engine runs sign-in, request authentication, role gating and school
// context resolution. Engine methods are safe for concurrent use after
// [Builder.Build].
type Engine struct {
	config Config
	logger *slog.Logger

	accounts AccountProvider
	tenants  TenantProvider

	limiter      LoginLimiter
	ownedLimiter io.Closer

	tokens  *jwt.Manager
	hasher  *password.Hasher
	audit   *internalaudit.Dispatcher
	metrics *Metrics
}

// PasswordHashUpgrader is implemented by account providers that can replace
// a stored hash without touching the reset flag or status. When present,
// Login re-hashes passwords stored with outdated parameters.
type PasswordHashUpgrader interface {
	UpgradePasswordHash(ctx context.Context, accountID, newHash string) error
}

// Close stops the audit dispatcher (draining queued events) and the built-in
// ledger sweeper.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.ownedLimiter != nil {
		_ = e.ownedLimiter.Close()
	}
}

// AuditDropped returns how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot returns a copy of the in-process counters; it is empty
// when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// TenantSelectorNames returns the header and query parameter that carry a
// super admin's school code.
func (e *Engine) TenantSelectorNames() (header, query string) {
	return e.config.Tenant.SelectorHeader, e.config.Tenant.SelectorQuery
}

// TokenTTL returns the session token lifetime.
func (e *Engine) TokenTTL() time.Duration {
	return e.tokens.TTL()
}

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observe(id MetricID, start time.Time) {
	if e == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}
