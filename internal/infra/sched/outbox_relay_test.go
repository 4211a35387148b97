//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"media-job-intake/internal/infra/worker"
)

type countingRelayer struct {
	calls int32
	err   error
}

func (c *countingRelayer) RelayPending(ctx context.Context, batch int) (int, error) {
	atomic.AddInt32(&c.calls, 1)
	return batch, c.err
}

func TestOutboxRelay_RunDispatchesUntilCancelled(t *testing.T) {
	log := zerolog.Nop()
	pool := worker.NewPool(2, &log)
	pool.Start(context.Background())
	defer pool.Stop()

	rel := &countingRelayer{}
	relay := NewOutboxRelay(5*time.Millisecond, 10, 2, rel, pool, &log)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	if err := relay.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	// allow in-flight tasks to finish
	time.Sleep(10 * time.Millisecond)
	if atomic.LoadInt32(&rel.calls) < 2 {
		t.Fatalf("expected relay to run at least twice, got %d", atomic.LoadInt32(&rel.calls))
	}
}

func TestOutboxRelay_TickSurvivesErrors(t *testing.T) {
	log := zerolog.Nop()
	pool := worker.NewPool(1, &log)
	pool.Start(context.Background())
	defer pool.Stop()

	rel := &countingRelayer{err: errors.New("db down")}
	relay := NewOutboxRelay(time.Hour, 5, 3, rel, pool, &log)
	relay.tick()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&rel.calls) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 relay calls, got %d", atomic.LoadInt32(&rel.calls))
		}
		time.Sleep(time.Millisecond)
	}
}
