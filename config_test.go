package schoolAuth

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.JWT.TTL != 12*time.Hour {
		t.Fatalf("expected 12h TTL, got %v", cfg.JWT.TTL)
	}
	if cfg.RateLimit.Window != 10*time.Minute || cfg.RateLimit.MaxFailures != 10 || cfg.RateLimit.SweepInterval != 5*time.Minute {
		t.Fatalf("unexpected rate limit defaults %+v", cfg.RateLimit)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"signing method", func(c *Config) { c.JWT.SigningMethod = "rs256" }},
		{"ttl", func(c *Config) { c.JWT.TTL = 0 }},
		{"leeway", func(c *Config) { c.JWT.Leeway = 5 * time.Minute }},
		{"backend", func(c *Config) { c.RateLimit.Backend = "memcached" }},
		{"window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"threshold", func(c *Config) { c.RateLimit.MaxFailures = 0 }},
		{"sweep", func(c *Config) { c.RateLimit.SweepInterval = -time.Second }},
		{"selector", func(c *Config) { c.Tenant.SelectorHeader, c.Tenant.SelectorQuery = "", " " }},
		{"min length", func(c *Config) { c.Password.MinLength = 0 }},
		{"max bytes", func(c *Config) { c.Password.MaxPasswordBytes = 4 }},
		{"memory", func(c *Config) { c.Password.Memory = 1024 }},
		{"salt", func(c *Config) { c.Password.SaltLength = 8 }},
		{"audit buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigValidateIgnoresDisabledRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.Window = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled rate limit settings should not be validated: %v", err)
	}
}

func TestConfigValidateAllowsMissingSecret(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HasSigningKey() {
		t.Fatal("default config must not ship a key")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing secret must not fail validation: %v", err)
	}
}

func TestConfigLint(t *testing.T) {
	cfg := DefaultConfig()
	codes := cfg.Lint().Codes()
	for _, want := range []string{"signing_key_missing", "rate_limit_per_process"} {
		if !slices.Contains(codes, want) {
			t.Fatalf("expected %q in %v", want, codes)
		}
	}

	cfg.JWT.Secret = []byte("short")
	cfg.RateLimit.Enabled = false
	cfg.JWT.TTL = 24 * time.Hour
	cfg.Audit.Enabled = false
	codes = cfg.Lint().Codes()
	for _, want := range []string{"signing_secret_short", "rate_limit_disabled", "token_ttl_long", "audit_disabled"} {
		if !slices.Contains(codes, want) {
			t.Fatalf("expected %q in %v", want, codes)
		}
	}
	if slices.Contains(codes, "signing_key_missing") {
		t.Fatal("key present; signing_key_missing should not be reported")
	}
}

func TestConfigLintSeverityFilter(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Lint().AsError(LintHigh); err != nil {
		t.Fatalf("test config should have no high findings: %v", err)
	}

	cfg.JWT.Secret = nil
	err := cfg.Lint().AsError(LintHigh)
	if err == nil || !strings.Contains(err.Error(), "signing_key_missing") {
		t.Fatalf("expected high finding, got %v", err)
	}
	for _, w := range cfg.Lint().BySeverity(LintWarn) {
		if w.Severity < LintWarn {
			t.Fatalf("BySeverity returned %v", w)
		}
	}
}

func TestHasSigningKeyEd25519(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.SigningMethod = "ed25519"
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	if cfg.HasSigningKey() {
		t.Fatal("ed25519 requires a private key, not a secret")
	}
	cfg.JWT.PrivateKey = make([]byte, 64)
	if !cfg.HasSigningKey() {
		t.Fatal("expected key present")
	}
}
