package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLedger(t *testing.T, clock *fakeClock) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ledger, err := NewRedisLedger(rdb, Config{Now: clock.Now})
	if err != nil {
		t.Fatalf("NewRedisLedger: %v", err)
	}
	return ledger, mr
}

func TestRedisLedgerBlocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	ledger, mr := newTestRedisLedger(t, clock)

	for i := 0; i < 9; i++ {
		if err := ledger.RecordFailure(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	d, err := ledger.CheckAllowed(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("CheckAllowed: %v", err)
	}
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("expected 1 remaining, got %+v", d)
	}

	_ = ledger.RecordFailure(ctx, "10.0.0.1")
	d, _ = ledger.CheckAllowed(ctx, "10.0.0.1")
	if d.Allowed || d.RetryAfterMinutes != 10 {
		t.Fatalf("expected blocked for 10 minutes, got %+v", d)
	}

	if ttl := mr.TTL(failureKey("10.0.0.1")); ttl != DefaultWindow {
		t.Fatalf("expected key ttl %v, got %v", DefaultWindow, ttl)
	}
}

func TestRedisLedgerPrunesAndClears(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	ledger, mr := newTestRedisLedger(t, clock)

	for i := 0; i < 10; i++ {
		_ = ledger.RecordFailure(ctx, "a")
	}
	clock.Advance(11 * time.Minute)
	d, _ := ledger.CheckAllowed(ctx, "a")
	if !d.Allowed || d.Remaining != DefaultMaxFailures {
		t.Fatalf("expected fresh budget after window, got %+v", d)
	}

	_ = ledger.RecordFailure(ctx, "b")
	if err := ledger.Clear(ctx, "b"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if mr.Exists(failureKey("b")) {
		t.Fatal("expected key deleted")
	}
}

func TestRedisLedgerUnavailable(t *testing.T) {
	clock := newFakeClock()
	ledger, mr := newTestRedisLedger(t, clock)
	mr.Close()

	if _, err := ledger.CheckAllowed(context.Background(), "a"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := ledger.RecordFailure(context.Background(), "a"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
