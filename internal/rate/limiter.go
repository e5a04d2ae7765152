package rate

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultWindow        = 10 * time.Minute
	DefaultMaxFailures   = 10
	DefaultSweepInterval = 5 * time.Minute
)

// Config holds ledger tuning parameters. Zero values take the defaults.
type Config struct {
	Window        time.Duration
	MaxFailures   int
	SweepInterval time.Duration
	// Now overrides the clock. Tests drive it as virtual time.
	Now func() time.Time
}

func (c Config) withDefaults() (Config, error) {
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = DefaultMaxFailures
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Window < 0 || c.MaxFailures < 0 || c.SweepInterval < 0 {
		return c, ErrInvalidConfig
	}
	return c, nil
}

// Decision is the outcome of a ledger check.
type Decision struct {
	Allowed bool
	// Remaining is the number of failures left before the address is blocked.
	Remaining int
	// RetryAfterMinutes is set when Allowed is false. It is always at least 1.
	RetryAfterMinutes int
}

func decide(cfg Config, now time.Time, count int, oldest time.Time) Decision {
	if count < cfg.MaxFailures {
		return Decision{Allowed: true, Remaining: cfg.MaxFailures - count}
	}
	return Decision{Allowed: false, RetryAfterMinutes: retryAfterMinutes(cfg.Window - now.Sub(oldest))}
}

func retryAfterMinutes(left time.Duration) int {
	minutes := int((left + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Limiter is the in-process ledger. All operations are serialised by one
// mutex, so prune-then-append is atomic per address.
type Limiter struct {
	config Config

	mu       sync.Mutex
	failures map[string][]time.Time

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an in-process [Limiter]. It does not start sweeping; call
// [Limiter.Start] or drive [Limiter.Run] yourself.
func New(cfg Config) (*Limiter, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Limiter{
		config:   cfg,
		failures: make(map[string][]time.Time),
	}, nil
}

// CheckAllowed prunes stale failures for addr and reports whether another
// attempt may proceed.
func (l *Limiter) CheckAllowed(_ context.Context, addr string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()
	live := l.pruneLocked(addr, now)
	if len(live) == 0 {
		return Decision{Allowed: true, Remaining: l.config.MaxFailures}, nil
	}
	return decide(l.config, now, len(live), live[0]), nil
}

// RecordFailure prunes stale failures for addr and appends the current time.
func (l *Limiter) RecordFailure(_ context.Context, addr string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()
	live := l.pruneLocked(addr, now)
	l.failures[addr] = append(live, now)
	return nil
}

// Clear forgets every failure for addr. Called after a successful login.
func (l *Limiter) Clear(_ context.Context, addr string) error {
	l.mu.Lock()
	delete(l.failures, addr)
	l.mu.Unlock()
	return nil
}

// Sweep prunes every address and drops the ones left empty.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.config.Now()
	for addr := range l.failures {
		l.pruneLocked(addr, now)
	}
}

// Len returns the number of tracked addresses.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

// Run sweeps on a ticker until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Start launches an owned sweeper goroutine. Stop it with [Limiter.Close].
// Calling Start more than once has no additional effect.
func (l *Limiter) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		l.Run(ctx)
	}(l.done)
}

// Close stops the owned sweeper, if any, and waits for it to exit.
func (l *Limiter) Close() error {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		cancel, done := l.cancel, l.done
		l.mu.Unlock()
		if cancel == nil {
			return
		}
		cancel()
		<-done
	})
	return nil
}

// pruneLocked drops failures at or beyond the window edge. Empty entries are
// removed from the map. Callers hold l.mu.
func (l *Limiter) pruneLocked(addr string, now time.Time) []time.Time {
	entries, ok := l.failures[addr]
	if !ok {
		return nil
	}
	cut := 0
	for cut < len(entries) && now.Sub(entries[cut]) >= l.config.Window {
		cut++
	}
	if cut == len(entries) {
		delete(l.failures, addr)
		return nil
	}
	if cut > 0 {
		entries = append(entries[:0], entries[cut:]...)
		l.failures[addr] = entries
	}
	return entries
}
