package adapter

import (
	"context"
	"time"
)

// SubmissionLimiter caps how often a single caller may submit jobs.
type SubmissionLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
