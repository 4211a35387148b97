package repository

import (
	"context"
	"time"

	"media-job-intake/internal/domain/model"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx Tx, msg *model.OutboxMessage) error
	// FetchPending locks up to limit unsent messages created before createdBefore,
	// oldest first, skipping rows locked by another relay. Must be called inside
	// a transaction.
	FetchPending(ctx context.Context, tx Tx, limit int, createdBefore time.Time) ([]*model.OutboxMessage, error)
	MarkSent(ctx context.Context, tx Tx, id string) error
	MarkFailed(ctx context.Context, tx Tx, id string, lastErr string) error
	CountPending(ctx context.Context, tx Tx) (int, error)
}
