package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"media-job-intake/internal/infra/worker"
)

// Relayer delivers pending outbox messages, returning how many were sent.
type Relayer interface {
	RelayPending(ctx context.Context, batch int) (int, error)
}

// OutboxRelay periodically drains the outbox through the worker pool. Each
// tick submits one relay task per worker; concurrent tasks lock disjoint rows.
type OutboxRelay struct {
	interval time.Duration
	batch    int
	fanout   int
	relayer  Relayer
	pool     *worker.Pool
	log      *zerolog.Logger
}

func NewOutboxRelay(interval time.Duration, batch, fanout int, relayer Relayer, pool *worker.Pool, logger *zerolog.Logger) *OutboxRelay {
	if fanout <= 0 {
		fanout = 1
	}
	relayLog := logger.With().Str("component", "OutboxRelay").Logger()
	return &OutboxRelay{
		interval: interval,
		batch:    batch,
		fanout:   fanout,
		relayer:  relayer,
		pool:     pool,
		log:      &relayLog,
	}
}

func (r *OutboxRelay) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("Starting outbox relay")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Stopping outbox relay")
			return ctx.Err()
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *OutboxRelay) tick() {
	for i := 0; i < r.fanout; i++ {
		err := r.pool.Submit(func(ctx context.Context) error {
			n, err := r.relayer.RelayPending(ctx, r.batch)
			if err != nil {
				return err
			}
			if n > 0 {
				r.log.Info().Int("count", n).Msg("outbox messages relayed")
			}
			return nil
		})
		if errors.Is(err, worker.ErrQueueFull) {
			r.log.Debug().Msg("worker pool saturated, skipping relay tick")
			return
		}
	}
}
