// schoolauth-server serves the school platform's login, session and
// school-context routes.
//
// Configuration is layered defaults, YAML, then SCHOOLAUTH_* environment
// variables; flags given on the command line win over all of them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/internal/config"
	"github.com/MrEthical07/schoolAuth/internal/server"
	promexport "github.com/MrEthical07/schoolAuth/metrics/export/prometheus"
	"github.com/MrEthical07/schoolAuth/password"
	"github.com/MrEthical07/schoolAuth/store/memory"
	"github.com/MrEthical07/schoolAuth/store/postgres"
)

type credentialStore interface {
	schoolAuth.AccountProvider
	schoolAuth.TenantProvider
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, addr, logLevel string

	flagSet := pflag.NewFlagSet("schoolauth-server", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML config (default: $SCHOOLAUTH_CONFIG or ./schoolauth.yaml)")
	flagSet.StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error, overrides log.level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineCfg := cfg.EngineConfig()

	store, closeStore, err := openStore(ctx, cfg, engineCfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	builder := schoolAuth.New().
		WithConfig(engineCfg).
		WithLogger(logger).
		WithAccountProvider(store).
		WithTenantProvider(store)

	if cfg.RateLimit.Enabled && cfg.RateLimit.Backend == "redis" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		builder = builder.WithRedis(client)
	}

	switch cfg.Audit.Sink {
	case "stdout":
		builder = builder.WithAuditSink(schoolAuth.NewJSONWriterSink(os.Stdout))
	case "log":
		builder = builder.WithAuditSink(schoolAuth.NewSlogSink(logger.With("component", "audit")))
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	report := engine.SecurityReport()
	logger.Info("security posture",
		"signing_algorithm", report.SigningAlgorithm,
		"token_ttl", report.TokenTTL,
		"rate_limiting", report.RateLimitingActive,
		"rate_limit_backend", report.RateLimitBackend,
		"argon2_memory_kib", report.Argon2.Memory,
		"audit", report.AuditActive,
	)

	opts := server.Options{
		Engine:     engine,
		Logger:     logger,
		TrustProxy: cfg.Server.TrustProxy,
	}
	if cfg.Metrics.Enabled {
		metricsHandler, err := promexport.Handler(promexport.NewCollector(engine))
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		opts.Metrics = metricsHandler
		opts.MetricsPath = cfg.Metrics.Path
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(opts).Router(),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("schoolauth-server listening",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Type,
			"rate_limit_backend", cfg.RateLimit.Backend,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func openStore(ctx context.Context, cfg *config.Config, engineCfg schoolAuth.Config, logger *slog.Logger) (credentialStore, func(), error) {
	switch cfg.Storage.Type {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Storage.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewStore(pool)
		if cfg.Storage.Postgres.MigrateOnStart {
			if err := store.Migrate(ctx); err != nil {
				pool.Close()
				return nil, nil, err
			}
			logger.Info("database migrations applied")
		}
		return store, pool.Close, nil

	default:
		store := memory.New()
		if cfg.Storage.SeedFile != "" {
			seed, err := config.LoadSeed(cfg.Storage.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			hasher, err := password.NewHasher(engineCfg.Password.HasherConfig())
			if err != nil {
				return nil, nil, err
			}
			if err := store.Load(hasher, seed); err != nil {
				return nil, nil, fmt.Errorf("load seed %s: %w", cfg.Storage.SeedFile, err)
			}
		}
		logger.Info("using in-memory credential store", "accounts", store.Len())
		return store, func() {}, nil
	}
}
