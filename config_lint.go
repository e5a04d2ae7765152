package schoolAuth

import (
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration warnings.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one advisory finding. Codes are stable identifiers.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of findings returned by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns a single error listing every warning at or above min, or
// nil if there are none.
func (r LintResult) AsError(min LintSeverity) error {
	matched := r.BySeverity(min)
	if len(matched) == 0 {
		return nil
	}
	parts := make([]string, 0, len(matched))
	for _, w := range matched {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that are valid but risky. It never fails; callers
// decide whether to escalate through [LintResult.AsError].
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.HasSigningKey() {
		add("signing_key_missing", LintHigh, "no signing key configured; every authenticated request will fail with a server error")
	} else if strings.EqualFold(c.JWT.SigningMethod, "hs256") && len(c.JWT.Secret) < 32 {
		add("signing_secret_short", LintWarn, "HS256 secret shorter than 32 bytes")
	}
	if c.JWT.TTL > 12*time.Hour {
		add("token_ttl_long", LintWarn, "session tokens live longer than 12h and cannot be revoked")
	}
	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT leeway above 1m")
	}
	if c.JWT.Issuer == "" {
		add("issuer_empty", LintInfo, "tokens carry no issuer; tokens from other services with the same key verify")
	}

	if !c.RateLimit.Enabled {
		add("rate_limit_disabled", LintHigh, "failed-login rate limiting is disabled")
	} else {
		if c.RateLimit.MaxFailures > 20 {
			add("rate_limit_threshold_high", LintWarn, "more than 20 failures allowed per window")
		}
		if c.RateLimit.Backend == "memory" {
			add("rate_limit_per_process", LintInfo, "in-memory ledger is per process; replicas do not share failure counts")
		}
	}

	if c.Password.MinLength < 8 {
		add("password_min_length_short", LintWarn, "password minimum length below 8")
	}
	if c.Password.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "Argon2id memory below 64 MiB")
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not emitted")
	}

	return ws
}
