package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/schoolAuth/store/memory"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SCHOOLAUTH_"

// Load builds a Config from defaults, the YAML file, the environment and
// secret files, then validates it.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if path := discoverConfigFile(configPath); path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(envPrefix + "CONFIG"); envPath != "" {
		return envPath
	}
	if _, err := os.Stat("schoolauth.yaml"); err == nil {
		return "schoolauth.yaml"
	}
	return ""
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides rejects malformed numeric or duration values instead of
// silently keeping the file value.
func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	str("ADDR", &cfg.Server.Addr)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("JWT_SIGNING_METHOD", &cfg.JWT.SigningMethod)
	str("JWT_SECRET", &cfg.JWT.Secret)
	str("JWT_SECRET_FILE", &cfg.JWT.SecretFile)
	str("JWT_PRIVATE_KEY_FILE", &cfg.JWT.PrivateKeyFile)
	str("JWT_PUBLIC_KEY_FILE", &cfg.JWT.PublicKeyFile)
	str("JWT_ISSUER", &cfg.JWT.Issuer)
	str("RATE_LIMIT_BACKEND", &cfg.RateLimit.Backend)
	str("STORAGE", &cfg.Storage.Type)
	str("SEED_FILE", &cfg.Storage.SeedFile)
	str("DATABASE_URL", &cfg.Storage.Postgres.DSN)
	str("DATABASE_URL_FILE", &cfg.Storage.Postgres.DSNFile)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("REDIS_PASSWORD_FILE", &cfg.Redis.PasswordFile)
	str("AUDIT_SINK", &cfg.Audit.Sink)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"JWT_TTL", &cfg.JWT.TTL},
		{"JWT_LEEWAY", &cfg.JWT.Leeway},
		{"RATE_LIMIT_WINDOW", &cfg.RateLimit.Window},
		{"RATE_LIMIT_SWEEP_INTERVAL", &cfg.RateLimit.SweepInterval},
		{"SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if err := envDuration(d.key, d.dst); err != nil {
			return err
		}
	}

	if err := envInt(envPrefix+"RATE_LIMIT_MAX_FAILURES", &cfg.RateLimit.MaxFailures); err != nil {
		return err
	}
	if err := envInt(envPrefix+"REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"RATE_LIMIT_ENABLED", &cfg.RateLimit.Enabled},
		{"TRUST_PROXY", &cfg.Server.TrustProxy},
		{"MIGRATE_ON_START", &cfg.Storage.Postgres.MigrateOnStart},
		{"AUDIT_ENABLED", &cfg.Audit.Enabled},
		{"METRICS_ENABLED", &cfg.Metrics.Enabled},
	}
	for _, b := range bools {
		if v := os.Getenv(envPrefix + b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, b.key, err)
			}
			*b.dst = parsed
		}
	}
	return nil
}

// envDuration accepts a Go duration in KEY or whole seconds in KEY_SECONDS.
func envDuration(key string, dst *time.Duration) error {
	if v := os.Getenv(envPrefix + key); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = parsed
		return nil
	}
	if v := os.Getenv(envPrefix + key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s_SECONDS: %w", envPrefix, key, err)
		}
		*dst = time.Duration(seconds) * time.Second
	}
	return nil
}

func envInt(key string, dst *int) error {
	if v := os.Getenv(key); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = parsed
	}
	return nil
}

func resolveFileReferences(cfg *Config) error {
	if cfg.JWT.SecretFile != "" && cfg.JWT.Secret == "" {
		val, err := readSecretFile(cfg.JWT.SecretFile)
		if err != nil {
			return fmt.Errorf("jwt.secret_file: %w", err)
		}
		cfg.JWT.Secret = val
	}
	if cfg.JWT.PrivateKeyFile != "" {
		data, err := os.ReadFile(cfg.JWT.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("jwt.private_key_file: %w", err)
		}
		cfg.JWT.PrivateKey = data
	}
	if cfg.JWT.PublicKeyFile != "" {
		data, err := os.ReadFile(cfg.JWT.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("jwt.public_key_file: %w", err)
		}
		cfg.JWT.PublicKey = data
	}
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}
	if cfg.Redis.PasswordFile != "" && cfg.Redis.Password == "" {
		val, err := readSecretFile(cfg.Redis.PasswordFile)
		if err != nil {
			return fmt.Errorf("redis.password_file: %w", err)
		}
		cfg.Redis.Password = val
	}
	return nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadSeed reads a memory-store fixture file.
func LoadSeed(path string) (memory.Seed, error) {
	var seed memory.Seed
	data, err := os.ReadFile(path)
	if err != nil {
		return seed, err
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return seed, nil
}
