package schoolAuth

import "github.com/MrEthical07/schoolAuth/internal/security"

// SecurityReport is a read-only snapshot of the engine's security posture,
// returned by [Engine.SecurityReport].
type SecurityReport = security.Report

// PasswordConfigReport contains the Argon2 parameters active in the engine.
type PasswordConfigReport = security.PasswordReport

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	cfg := e.config
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: cfg.JWT.SigningMethod,
		TokenTTL:         cfg.JWT.TTL,
		Leeway:           cfg.JWT.Leeway,
		HasSigningKey:    cfg.HasSigningKey(),
		Password: security.PasswordReport{
			MinLength:   cfg.Password.MinLength,
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		},
		RateLimitEnabled:  cfg.RateLimit.Enabled,
		RateLimitBackend:  cfg.RateLimit.Backend,
		RateLimitWindow:   cfg.RateLimit.Window,
		MaxFailures:       cfg.RateLimit.MaxFailures,
		SelectorHeader:    cfg.Tenant.SelectorHeader,
		SelectorQuery:     cfg.Tenant.SelectorQuery,
		AuditEnabled:      cfg.Audit.Enabled,
		AuditDropIfFull:   cfg.Audit.DropIfFull,
		MetricsEnabled:    cfg.Metrics.Enabled,
		LatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
	})
}
