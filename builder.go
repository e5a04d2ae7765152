package schoolAuth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/schoolAuth/internal/audit"
	"github.com/MrEthical07/schoolAuth/internal/rate"
	"github.com/MrEthical07/schoolAuth/jwt"
	"github.com/MrEthical07/schoolAuth/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config Config
	logger *slog.Logger

	accounts AccountProvider
	tenants  TenantProvider
	limiter  LoginLimiter
	redis    redis.UniversalClient

	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the engine logger. The default is [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAccountProvider sets the credential store. Required.
func (b *Builder) WithAccountProvider(p AccountProvider) *Builder {
	b.accounts = p
	return b
}

// WithTenantProvider sets the school store used to resolve super admin
// selectors.
func (b *Builder) WithTenantProvider(p TenantProvider) *Builder {
	b.tenants = p
	return b
}

// WithLoginLimiter overrides the ledger built from Config.RateLimit. The
// engine does not close a limiter supplied this way.
func (b *Builder) WithLoginLimiter(l LoginLimiter) *Builder {
	b.limiter = l
	return b
}

// WithRedis supplies the client for RateLimit.Backend "redis".
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides time.Now for token issuance, verification and the
// built-in ledger.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. Lint
// findings are logged at Warn and do not fail the build; a missing signing
// key in particular surfaces later as [ErrConfiguration] on every token
// operation.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.accounts == nil {
		return nil, errors.New("account provider required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	for _, w := range cfg.Lint() {
		if w.Severity >= LintWarn {
			logger.Warn("schoolauth config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
		}
	}

	tokens, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.JWT.SigningMethod)),
		Secret:        cloneBytes(cfg.JWT.Secret),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		TTL:           cfg.JWT.TTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	hasher, err := password.NewHasher(cfg.Password.HasherConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	engine := &Engine{
		config:   cfg,
		logger:   logger,
		accounts: b.accounts,
		tenants:  b.tenants,
		tokens:   tokens,
		hasher:   hasher,
		metrics:  NewMetrics(cfg.Metrics),
	}

	switch {
	case b.limiter != nil:
		engine.limiter = b.limiter
	case cfg.RateLimit.Enabled:
		limiter, closer, err := b.buildLimiter(cfg.RateLimit, now)
		if err != nil {
			return nil, err
		}
		engine.limiter = limiter
		engine.ownedLimiter = closer
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true
	return engine, nil
}

func (b *Builder) buildLimiter(cfg RateLimitConfig, now func() time.Time) (LoginLimiter, io.Closer, error) {
	rc := rate.Config{
		Window:        cfg.Window,
		MaxFailures:   cfg.MaxFailures,
		SweepInterval: cfg.SweepInterval,
		Now:           now,
	}

	switch cfg.Backend {
	case "redis":
		if b.redis == nil {
			return nil, nil, errors.New("RateLimit Backend 'redis' requires a redis client")
		}
		ledger, err := rate.NewRedisLedger(b.redis, rc)
		if err != nil {
			return nil, nil, err
		}
		return ledger, ledger, nil
	default:
		limiter, err := rate.New(rc)
		if err != nil {
			return nil, nil, err
		}
		limiter.Start()
		return limiter, limiter, nil
	}
}
