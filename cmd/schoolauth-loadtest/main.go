// schoolauth-loadtest drives the failed-login ledger from many goroutines
// and checks that no client address is admitted past the failure threshold.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/schoolAuth/internal/rate"
)

type ledger interface {
	CheckAllowed(ctx context.Context, addr string) (rate.Decision, error)
	RecordFailure(ctx context.Context, addr string) error
	Clear(ctx context.Context, addr string) error
	Close() error
}

// addrState serialises one address's check-then-record, the way a single
// login request does.
type addrState struct {
	addr     string
	mu       sync.Mutex
	admitted int
	blocked  int
}

func main() {
	var (
		backend     string
		redisAddr   string
		addrs       int
		concurrency int
		ops         int
		maxFailures int
		window      time.Duration
	)

	flagSet := pflag.NewFlagSet("schoolauth-loadtest", pflag.ExitOnError)
	flagSet.StringVar(&backend, "backend", "memory", "ledger backend: memory or redis")
	flagSet.StringVar(&redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	flagSet.IntVar(&addrs, "addrs", 5000, "number of distinct client addresses")
	flagSet.IntVar(&concurrency, "concurrency", 256, "number of concurrent workers")
	flagSet.IntVar(&ops, "ops", 200000, "failed attempts to simulate")
	flagSet.IntVar(&maxFailures, "max-failures", rate.DefaultMaxFailures, "failures allowed per window")
	flagSet.DurationVar(&window, "window", rate.DefaultWindow, "sliding window")
	_ = flagSet.Parse(os.Args[1:])

	if addrs <= 0 || concurrency <= 0 || ops <= 0 || maxFailures <= 0 {
		fmt.Fprintln(os.Stderr, "addrs, concurrency, ops and max-failures must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := rate.Config{Window: window, MaxFailures: maxFailures}

	l, cleanup, err := openLedger(backend, redisAddr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	states := make([]addrState, addrs)
	for i := range states {
		states[i].addr = fmt.Sprintf("198.51.%d.%d", (i/256)%256, i%256)
	}

	failStats := runFailurePhase(ctx, l, states, ops, concurrency)
	violations := checkThreshold(ctx, l, states, maxFailures)
	clearStats := runClearPhase(ctx, l, states, concurrency, maxFailures)

	fmt.Println("---- results ----")
	printStats("failures", failStats)
	printStats("clear", clearStats)

	var admitted, blocked int
	for i := range states {
		admitted += states[i].admitted
		blocked += states[i].blocked
	}
	fmt.Printf("admitted=%d blocked=%d threshold=%d addrs=%d\n", admitted, blocked, maxFailures, addrs)

	if violations > 0 || failStats.failures > 0 || clearStats.failures > 0 {
		fmt.Fprintf(os.Stderr, "FAIL: %d addresses over threshold, %d ledger errors\n",
			violations, failStats.failures+clearStats.failures)
		os.Exit(1)
	}
	fmt.Println("OK: no address admitted past the threshold")
}

func openLedger(backend, redisAddr string, cfg rate.Config) (ledger, func(), error) {
	switch backend {
	case "memory":
		l, err := rate.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		l.Start()
		fmt.Println("using in-process ledger")
		return l, func() { _ = l.Close() }, nil

	case "redis":
		addr := redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		var mr *miniredis.Miniredis
		if addr == "" {
			var err error
			mr, err = miniredis.Run()
			if err != nil {
				return nil, nil, fmt.Errorf("start miniredis: %w", err)
			}
			addr = mr.Addr()
			fmt.Printf("using miniredis at %s\n", addr)
		} else {
			fmt.Printf("using redis at %s\n", addr)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup := func() {
			_ = client.Close()
			if mr != nil {
				mr.Close()
			}
		}
		l, err := rate.NewRedisLedger(client, cfg)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return l, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func runFailurePhase(ctx context.Context, l ledger, states []addrState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]

				state.mu.Lock()
				t0 := time.Now()
				decision, err := l.CheckAllowed(ctx, state.addr)
				if err == nil && decision.Allowed {
					err = l.RecordFailure(ctx, state.addr)
					if err == nil {
						state.admitted++
					}
				} else if err == nil {
					state.blocked++
				}
				d := time.Since(t0)
				state.mu.Unlock()

				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

// checkThreshold counts addresses admitted more than maxFailures times, and
// addresses that reached the threshold but are not reported blocked.
func checkThreshold(ctx context.Context, l ledger, states []addrState, maxFailures int) int {
	violations := 0
	for i := range states {
		s := &states[i]
		if s.admitted > maxFailures {
			fmt.Fprintf(os.Stderr, "%s admitted %d times\n", s.addr, s.admitted)
			violations++
			continue
		}
		if s.admitted < maxFailures {
			continue
		}
		decision, err := l.CheckAllowed(ctx, s.addr)
		if err != nil || decision.Allowed || decision.RetryAfterMinutes < 1 {
			fmt.Fprintf(os.Stderr, "%s at threshold but decision=%+v err=%v\n", s.addr, decision, err)
			violations++
		}
	}
	return violations
}

func runClearPhase(ctx context.Context, l ledger, states []addrState, concurrency, maxFailures int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, len(states))
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(states) {
					return
				}
				t0 := time.Now()
				err := l.Clear(ctx, states[i].addr)
				if err == nil {
					var decision rate.Decision
					decision, err = l.CheckAllowed(ctx, states[i].addr)
					if err == nil && (!decision.Allowed || decision.Remaining != maxFailures) {
						err = fmt.Errorf("%s not reset: %+v", states[i].addr, decision)
					}
				}
				d := time.Since(t0)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
