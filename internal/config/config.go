// Package config loads schoolauth-server configuration.
//
// Loading is layered:
//  1. Built-in defaults
//  2. YAML file (explicit path, SCHOOLAUTH_CONFIG, ./schoolauth.yaml)
//  3. SCHOOLAUTH_* environment overrides
//  4. _file secret references
//  5. Validation
package config

import (
	"strings"
	"time"

	schoolAuth "github.com/MrEthical07/schoolAuth"
)

// Config is the server configuration tree.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tenant    TenantConfig    `yaml:"tenant"`
	Password  PasswordConfig  `yaml:"password"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Audit     AuditConfig     `yaml:"audit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // default: ":8080"
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 10s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 15s
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `yaml:"trust_proxy"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

type JWTConfig struct {
	SigningMethod  string        `yaml:"signing_method"` // hs256 or ed25519
	Secret         string        `yaml:"secret"`
	SecretFile     string        `yaml:"secret_file"`
	PrivateKeyFile string        `yaml:"private_key_file"`
	PublicKeyFile  string        `yaml:"public_key_file"`
	TTL            time.Duration `yaml:"ttl"`
	Issuer         string        `yaml:"issuer"`
	Leeway         time.Duration `yaml:"leeway"`

	// Loaded from the key files.
	PrivateKey []byte `yaml:"-"`
	PublicKey  []byte `yaml:"-"`
}

type RateLimitConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Backend       string        `yaml:"backend"` // memory or redis
	Window        time.Duration `yaml:"window"`
	MaxFailures   int           `yaml:"max_failures"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type TenantConfig struct {
	SelectorHeader string `yaml:"selector_header"`
	SelectorQuery  string `yaml:"selector_query"`
}

type PasswordConfig struct {
	MinLength   int    `yaml:"min_length"`
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
}

type StorageConfig struct {
	Type     string         `yaml:"type"` // memory or postgres
	SeedFile string         `yaml:"seed_file"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	PasswordFile string `yaml:"password_file"`
	DB           int    `yaml:"db"`
}

type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Sink       string `yaml:"sink"` // log, stdout, none
	BufferSize int    `yaml:"buffer_size"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults mirrors [schoolAuth.DefaultConfig] for the engine sections.
func Defaults() Config {
	engine := schoolAuth.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		JWT: JWTConfig{
			SigningMethod: engine.JWT.SigningMethod,
			TTL:           engine.JWT.TTL,
			Issuer:        engine.JWT.Issuer,
		},
		RateLimit: RateLimitConfig{
			Enabled:       engine.RateLimit.Enabled,
			Backend:       engine.RateLimit.Backend,
			Window:        engine.RateLimit.Window,
			MaxFailures:   engine.RateLimit.MaxFailures,
			SweepInterval: engine.RateLimit.SweepInterval,
		},
		Tenant: TenantConfig{
			SelectorHeader: engine.Tenant.SelectorHeader,
			SelectorQuery:  engine.Tenant.SelectorQuery,
		},
		Password: PasswordConfig{
			MinLength:   engine.Password.MinLength,
			MemoryKiB:   engine.Password.Memory,
			Time:        engine.Password.Time,
			Parallelism: engine.Password.Parallelism,
		},
		Storage: StorageConfig{Type: "memory"},
		Audit:   AuditConfig{Enabled: true, Sink: "log", BufferSize: engine.Audit.BufferSize},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// EngineConfig converts c into the engine configuration.
func (c *Config) EngineConfig() schoolAuth.Config {
	cfg := schoolAuth.DefaultConfig()

	cfg.JWT.SigningMethod = strings.ToLower(c.JWT.SigningMethod)
	if c.JWT.Secret != "" {
		cfg.JWT.Secret = []byte(c.JWT.Secret)
	}
	cfg.JWT.PrivateKey = c.JWT.PrivateKey
	cfg.JWT.PublicKey = c.JWT.PublicKey
	cfg.JWT.TTL = c.JWT.TTL
	cfg.JWT.Issuer = c.JWT.Issuer
	cfg.JWT.Leeway = c.JWT.Leeway

	cfg.RateLimit.Enabled = c.RateLimit.Enabled
	cfg.RateLimit.Backend = c.RateLimit.Backend
	cfg.RateLimit.Window = c.RateLimit.Window
	cfg.RateLimit.MaxFailures = c.RateLimit.MaxFailures
	cfg.RateLimit.SweepInterval = c.RateLimit.SweepInterval

	cfg.Tenant.SelectorHeader = c.Tenant.SelectorHeader
	cfg.Tenant.SelectorQuery = c.Tenant.SelectorQuery

	cfg.Password.MinLength = c.Password.MinLength
	cfg.Password.Memory = c.Password.MemoryKiB
	cfg.Password.Time = c.Password.Time
	cfg.Password.Parallelism = c.Password.Parallelism

	cfg.Audit.Enabled = c.Audit.Enabled && c.Audit.Sink != "none"
	cfg.Audit.BufferSize = c.Audit.BufferSize

	cfg.Metrics.Enabled = c.Metrics.Enabled
	return cfg
}
