package schoolAuth

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/schoolAuth/password"
)

// Config is the engine configuration tree. Start from [DefaultConfig] and
// override fields; [Builder.Build] calls [Config.Validate].
type Config struct {
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Tenant    TenantConfig
	Password  PasswordConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures session token signing. Key material may be empty at
// build time; the engine then fails every token operation with
// [ErrConfiguration].
type JWTConfig struct {
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte
	PrivateKey    []byte
	PublicKey     []byte
	TTL           time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig configures the failed-login ledger.
type RateLimitConfig struct {
	Enabled       bool
	Backend       string // "memory" (default) or "redis"
	Window        time.Duration
	MaxFailures   int
	SweepInterval time.Duration
}

/*
====================================
TENANT CONFIG
====================================
*/

// TenantConfig names where super admins pass the school selector.
type TenantConfig struct {
	SelectorHeader string
	SelectorQuery  string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the password policy and Argon2id parameters.
type PasswordConfig struct {
	MinLength        int
	MaxPasswordBytes int
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
}

// HasherConfig returns the Argon2id parameters for [password.NewHasher].
func (c PasswordConfig) HasherConfig() password.Config {
	return password.Config{
		Memory:           c.Memory,
		Time:             c.Time,
		Parallelism:      c.Parallelism,
		SaltLength:       c.SaltLength,
		KeyLength:        c.KeyLength,
		MaxPasswordBytes: c.MaxPasswordBytes,
	}
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: HS256 with a 12h token
// lifetime, 10 failures per 10 minutes per address, and Argon2id at 64 MiB.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "hs256",
			TTL:           12 * time.Hour,
			Issuer:        "schoolauth",
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Backend:       "memory",
			Window:        10 * time.Minute,
			MaxFailures:   10,
			SweepInterval: 5 * time.Minute,
		},
		Tenant: TenantConfig{
			SelectorHeader: "X-School-Code",
			SelectorQuery:  "schoolCode",
		},
		Password: PasswordConfig{
			MinLength:        8,
			MaxPasswordBytes: 1024,
			Memory:           64 * 1024,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// HasSigningKey reports whether token key material is configured.
func (c *Config) HasSigningKey() bool {
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "ed25519":
		return len(c.JWT.PrivateKey) > 0
	default:
		return len(c.JWT.Secret) > 0
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate rejects structurally impossible values. A missing signing key is
// not a validation error; see [Config.Lint].
func (c *Config) Validate() error {
	// JWT
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "hs256", "ed25519":
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "memory", "redis":
		default:
			return errors.New("RateLimit Backend must be 'memory' or 'redis'")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0")
		}
		if c.RateLimit.MaxFailures <= 0 {
			return errors.New("RateLimit MaxFailures must be > 0")
		}
		if c.RateLimit.SweepInterval <= 0 {
			return errors.New("RateLimit SweepInterval must be > 0")
		}
	}

	// Tenant
	if strings.TrimSpace(c.Tenant.SelectorHeader) == "" && strings.TrimSpace(c.Tenant.SelectorQuery) == "" {
		return errors.New("Tenant selector header or query parameter must be set")
	}

	// Password
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxPasswordBytes < c.Password.MinLength {
		return errors.New("Password MaxPasswordBytes must be >= MinLength")
	}
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
