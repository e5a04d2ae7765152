package security

import "time"

type PasswordReport struct {
	MinLength   int
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

type Report struct {
	SigningAlgorithm    string
	TokenTTL            time.Duration
	Leeway              time.Duration
	SigningKeyPresent   bool
	Argon2              PasswordReport
	RateLimitingActive  bool
	RateLimitBackend    string
	RateLimitWindow     time.Duration
	RateLimitThreshold  int
	TenantSelector      string
	AuditActive         bool
	AuditMayDropEvents  bool
	LatencyHistograms   bool
	OfflineVerifiable   bool
	SharedRateLimitView bool
}

type ReportInput struct {
	SigningAlgorithm  string
	TokenTTL          time.Duration
	Leeway            time.Duration
	HasSigningKey     bool
	Password          PasswordReport
	RateLimitEnabled  bool
	RateLimitBackend  string
	RateLimitWindow   time.Duration
	MaxFailures       int
	SelectorHeader    string
	SelectorQuery     string
	AuditEnabled      bool
	AuditDropIfFull   bool
	MetricsEnabled    bool
	LatencyHistograms bool
}

func BuildReport(input ReportInput) Report {
	rateLimiting := input.RateLimitEnabled &&
		input.MaxFailures > 0 &&
		input.RateLimitWindow > 0

	r := Report{
		SigningAlgorithm:   input.SigningAlgorithm,
		TokenTTL:           input.TokenTTL,
		Leeway:             input.Leeway,
		SigningKeyPresent:  input.HasSigningKey,
		Argon2:             input.Password,
		RateLimitingActive: rateLimiting,
		TenantSelector:     input.SelectorHeader + " / ?" + input.SelectorQuery,
		AuditActive:        input.AuditEnabled,
		AuditMayDropEvents: input.AuditEnabled && input.AuditDropIfFull,
		LatencyHistograms:  input.MetricsEnabled && input.LatencyHistograms,
		// Ed25519 tokens can be checked by services holding only the public key.
		OfflineVerifiable: input.SigningAlgorithm == "ed25519",
	}
	if rateLimiting {
		r.RateLimitBackend = input.RateLimitBackend
		r.RateLimitWindow = input.RateLimitWindow
		r.RateLimitThreshold = input.MaxFailures
		r.SharedRateLimitView = input.RateLimitBackend == "redis"
	}
	return r
}
