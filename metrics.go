package schoolAuth

import internalmetrics "github.com/MrEthical07/schoolAuth/internal/metrics"

// MetricID identifies a counter or histogram in the in-process metrics.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess                 = MetricID(internalmetrics.MetricLoginSuccess)
	MetricLoginFailure                 = MetricID(internalmetrics.MetricLoginFailure)
	MetricLoginRateLimited             = MetricID(internalmetrics.MetricLoginRateLimited)
	MetricLoginAccountBlocked          = MetricID(internalmetrics.MetricLoginAccountBlocked)
	MetricAuthenticateSuccess          = MetricID(internalmetrics.MetricAuthenticateSuccess)
	MetricAuthenticateFailure          = MetricID(internalmetrics.MetricAuthenticateFailure)
	MetricRoleDenied                   = MetricID(internalmetrics.MetricRoleDenied)
	MetricTenantResolved               = MetricID(internalmetrics.MetricTenantResolved)
	MetricTenantFailure                = MetricID(internalmetrics.MetricTenantFailure)
	MetricPasswordChangeSuccess        = MetricID(internalmetrics.MetricPasswordChangeSuccess)
	MetricPasswordChangeInvalidCurrent = MetricID(internalmetrics.MetricPasswordChangeInvalidCurrent)
	MetricPasswordChangeReuseRejected  = MetricID(internalmetrics.MetricPasswordChangeReuseRejected)
	MetricPasswordChangePolicyRejected = MetricID(internalmetrics.MetricPasswordChangePolicyRejected)
	MetricLimiterUnavailable           = MetricID(internalmetrics.MetricLimiterUnavailable)
	// MetricAuthenticateLatency and MetricLoginLatency are histograms.
	MetricAuthenticateLatency = MetricID(internalmetrics.MetricAuthenticateLatency)
	MetricLoginLatency        = MetricID(internalmetrics.MetricLoginLatency)
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
