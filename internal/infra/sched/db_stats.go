package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"media-job-intake/internal/infra/metrics"
)

// DBStatsWorker publishes connection pool gauges.
type DBStatsWorker struct {
	interval time.Duration
	pool     *pgxpool.Pool
	log      *zerolog.Logger
}

func NewDBStatsWorker(interval time.Duration, pool *pgxpool.Pool, logger *zerolog.Logger) *DBStatsWorker {
	l := logger.With().Str("component", "DBStatsWorker").Logger()
	return &DBStatsWorker{interval: interval, pool: pool, log: &l}
}

func (w *DBStatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s := w.pool.Stat()
			metrics.SetDBPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns())
		}
	}
}
