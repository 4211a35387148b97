//go:build !integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"media-job-intake/internal/config"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cli, err := NewClient(context.Background(), &config.RedisConfig{URL: mr.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })
	return NewRateLimiter(cli), mr
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	rl, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := rl.Allow(ctx, "submit:u1", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("hit %d: got (%v, %v), want allowed", i, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, "submit:u1", 3, time.Minute); ok {
		t.Fatal("fourth hit in the window must be refused")
	}
	if ok, _ := rl.Allow(ctx, "submit:u2", 3, time.Minute); !ok {
		t.Fatal("keys are independent")
	}

	if ttl := mr.TTL("rate_limit:submit:u1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s", ttl)
	}
	mr.FastForward(time.Minute + time.Second)
	if ok, _ := rl.Allow(ctx, "submit:u1", 3, time.Minute); !ok {
		t.Fatal("a new window must allow again")
	}
}

func TestRateLimiter_RepairsMissingExpiry(t *testing.T) {
	rl, mr := newTestLimiter(t)
	if err := mr.Set("rate_limit:submit:stuck", "5"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, _ := rl.Allow(context.Background(), "submit:stuck", 3, time.Minute); ok {
		t.Fatal("over the limit must be refused")
	}
	if ttl := mr.TTL("rate_limit:submit:stuck"); ttl <= 0 {
		t.Fatalf("expected expiry to be set, got %s", ttl)
	}
}

func TestRateLimiter_ErrorWhenUnavailable(t *testing.T) {
	rl, mr := newTestLimiter(t)
	mr.Close()
	if _, err := rl.Allow(context.Background(), "submit:u1", 1, time.Minute); err == nil {
		t.Fatal("expected error when redis is down")
	}
}

func TestNewClient_ParsesURL(t *testing.T) {
	mr := miniredis.RunT(t)
	cli, err := NewClient(context.Background(), &config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer cli.Close()
	if err := cli.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
