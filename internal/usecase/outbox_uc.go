package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/model"
	"media-job-intake/internal/domain/ports/adapter"
	"media-job-intake/internal/domain/ports/repository"
	"media-job-intake/internal/infra/metrics"
)

// OutboxDispatcher delivers recorded side effects: job-created events go to the
// broker and storage deletions go to the storage service.
type OutboxDispatcher struct {
	outbox    repository.OutboxRepository
	tm        repository.TransactionManager
	publisher adapter.EventPublisher
	storage   adapter.StorageService
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
	inline    time.Duration
	log       *zerolog.Logger
}

const (
	defaultInlineBudget = 10 * time.Second
	// relaySettle covers the commit and the MarkSent write around an inline delivery.
	relaySettle = 5 * time.Second
)

func NewOutboxDispatcher(
	outbox repository.OutboxRepository,
	tm repository.TransactionManager,
	publisher adapter.EventPublisher,
	storage adapter.StorageService,
	attempts int,
	baseDelay time.Duration,
	inlineBudget time.Duration,
	logger *zerolog.Logger,
) *OutboxDispatcher {
	if attempts <= 0 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	if inlineBudget <= 0 {
		inlineBudget = defaultInlineBudget
	}
	l := logger.With().Str("component", "OutboxDispatcher").Logger()
	return &OutboxDispatcher{
		outbox:    outbox,
		tm:        tm,
		publisher: publisher,
		storage:   storage,
		attempts:  attempts,
		baseDelay: baseDelay,
		maxDelay:  5 * time.Second,
		inline:    inlineBudget,
		log:       &l,
	}
}

// Deliver performs the side effect of msg once.
func (d *OutboxDispatcher) Deliver(ctx context.Context, msg *model.OutboxMessage) error {
	switch msg.Kind {
	case model.OutboxJobCreated:
		return d.publisher.Publish(ctx, adapter.RoutingKeyJobCreated, msg.Payload)
	case model.OutboxStorageDelete:
		var del model.StorageDeletion
		if err := json.Unmarshal(msg.Payload, &del); err != nil {
			return fmt.Errorf("decode storage deletion %s: %w", msg.ID, err)
		}
		deleted, err := d.storage.DeleteObjects(ctx, del.StorageIDs, del.UserID)
		if err != nil {
			return err
		}
		if len(deleted) != len(del.StorageIDs) {
			d.log.Warn().
				Str("message_id", msg.ID).
				Int("requested", len(del.StorageIDs)).
				Int("deleted", len(deleted)).
				Msg("storage service deleted fewer objects than requested")
		}
		return nil
	default:
		return fmt.Errorf("unknown outbox kind %q", msg.Kind)
	}
}

func (d *OutboxDispatcher) deliverWithRetry(ctx context.Context, msg *model.OutboxMessage) error {
	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if lastErr = d.Deliver(ctx, msg); lastErr == nil {
			return nil
		}
		if attempt == d.attempts {
			break
		}
		backoff := d.baseDelay << (attempt - 1)
		if backoff > d.maxDelay {
			backoff = d.maxDelay
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return errors.Join(lastErr, ctx.Err())
		}
	}
	return lastErr
}

// DeliverNow tries msg with exponential backoff right after the owning
// transaction committed, for at most the inline budget. On success the message
// is marked sent; on failure it stays pending for the relay and the error is
// returned.
func (d *OutboxDispatcher) DeliverNow(ctx context.Context, msg *model.OutboxMessage) error {
	inlineCtx, cancel := context.WithTimeout(ctx, d.inline)
	defer cancel()
	lastErr := d.deliverWithRetry(inlineCtx, msg)
	if lastErr != nil {
		metrics.IncOutboxDelivery(string(msg.Kind), "deferred")
		if err := d.outbox.MarkFailed(context.WithoutCancel(ctx), repository.NoTX, msg.ID, lastErr.Error()); err != nil {
			d.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to record outbox failure")
		}
		return lastErr
	}

	metrics.IncOutboxDelivery(string(msg.Kind), "sent")
	if err := d.outbox.MarkSent(context.WithoutCancel(ctx), repository.NoTX, msg.ID); err != nil {
		// Delivered but still pending: the relay will deliver it again. Consumers
		// must treat events as at-least-once.
		d.log.Error().Err(err).Str("message_id", msg.ID).Msg("failed to mark outbox message sent")
	}
	return nil
}

// RelayPending delivers up to batch pending messages inside one transaction.
// Messages still inside their inline delivery window are skipped so an event
// is not published by both paths. It returns how many were delivered.
func (d *OutboxDispatcher) RelayPending(ctx context.Context, batch int) (int, error) {
	sent := 0
	cutoff := time.Now().Add(-(d.inline + relaySettle))
	err := d.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		msgs, err := d.outbox.FetchPending(ctx, tx, batch, cutoff)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if derr := d.Deliver(ctx, msg); derr != nil {
				metrics.IncOutboxDelivery(string(msg.Kind), "failed")
				d.log.Warn().Err(derr).
					Str("message_id", msg.ID).
					Str("kind", string(msg.Kind)).
					Int("attempts", msg.Attempts+1).
					Msg("outbox delivery failed")
				if err := d.outbox.MarkFailed(ctx, tx, msg.ID, derr.Error()); err != nil {
					return err
				}
				continue
			}
			metrics.IncOutboxDelivery(string(msg.Kind), "sent")
			if err := d.outbox.MarkSent(ctx, tx, msg.ID); err != nil {
				return err
			}
			sent++
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return sent, err
	}

	if pending, err := d.outbox.CountPending(ctx, repository.NoTX); err == nil {
		metrics.SetOutboxPending(pending)
	}
	return sent, nil
}
