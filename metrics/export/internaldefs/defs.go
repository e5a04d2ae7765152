package internaldefs

import (
	schoolAuth "github.com/MrEthical07/schoolAuth"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   schoolAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   schoolAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported alongside the engine counters.
const (
	AuditDroppedName = "schoolauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: schoolAuth.MetricLoginSuccess, Name: "schoolauth_login_success_total", Help: "Successful sign-ins."},
	{ID: schoolAuth.MetricLoginFailure, Name: "schoolauth_login_failure_total", Help: "Sign-ins rejected for unknown identifier or wrong password."},
	{ID: schoolAuth.MetricLoginRateLimited, Name: "schoolauth_login_rate_limited_total", Help: "Sign-ins rejected by the failed-login ledger."},
	{ID: schoolAuth.MetricLoginAccountBlocked, Name: "schoolauth_login_account_blocked_total", Help: "Sign-ins with correct credentials on disabled or suspended accounts."},
	{ID: schoolAuth.MetricAuthenticateSuccess, Name: "schoolauth_authenticate_success_total", Help: "Requests with a valid session token."},
	{ID: schoolAuth.MetricAuthenticateFailure, Name: "schoolauth_authenticate_failure_total", Help: "Requests rejected during token authentication."},
	{ID: schoolAuth.MetricRoleDenied, Name: "schoolauth_role_denied_total", Help: "Requests rejected by a role gate."},
	{ID: schoolAuth.MetricTenantResolved, Name: "schoolauth_tenant_resolved_total", Help: "Requests with a resolved school context."},
	{ID: schoolAuth.MetricTenantFailure, Name: "schoolauth_tenant_failure_total", Help: "Requests rejected during school context resolution."},
	{ID: schoolAuth.MetricPasswordChangeSuccess, Name: "schoolauth_password_change_success_total", Help: "Successful password changes."},
	{ID: schoolAuth.MetricPasswordChangeInvalidCurrent, Name: "schoolauth_password_change_invalid_current_total", Help: "Password changes with a wrong current password."},
	{ID: schoolAuth.MetricPasswordChangeReuseRejected, Name: "schoolauth_password_change_reuse_rejected_total", Help: "Password changes rejected for reuse."},
	{ID: schoolAuth.MetricPasswordChangePolicyRejected, Name: "schoolauth_password_change_policy_rejected_total", Help: "Password changes rejected by the length policy."},
	{ID: schoolAuth.MetricLimiterUnavailable, Name: "schoolauth_limiter_unavailable_total", Help: "Failed-login ledger operations that returned an error."},
}

var HistogramDefs = []HistogramDef{
	{ID: schoolAuth.MetricAuthenticateLatency, Name: "schoolauth_authenticate_latency_seconds", Help: "Authenticate latency."},
	{ID: schoolAuth.MetricLoginLatency, Name: "schoolauth_login_latency_seconds", Help: "Login latency, including password hashing."},
}

// HistogramBounds are the upper bounds of the engine's finite buckets, in
// seconds. The engine keeps one more bucket for +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf last, for exporters without
// native histogram support.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// BucketCount is the number of engine buckets, +Inf included.
const BucketCount = 8

// NormalizeBuckets copies raw into a fixed-size array, zero-filling.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
