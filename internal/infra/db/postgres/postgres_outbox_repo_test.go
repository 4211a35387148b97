//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/model"
	"media-job-intake/internal/domain/ports/repository"
)

func TestOutboxRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewOutboxRepo(testPool)
	tm := NewTxManager(testPool)
	later := func() time.Time { return time.Now().Add(time.Minute) }

	t.Run("pending messages come back oldest first", func(t *testing.T) {
		cleanup(t)
		first := model.NewOutboxMessage(model.OutboxJobCreated, []byte(`{"n":1}`))
		second := model.NewOutboxMessage(model.OutboxStorageDelete, []byte(`{"n":2}`))
		for _, m := range []*model.OutboxMessage{first, second} {
			if err := repo.Enqueue(ctx, nil, m); err != nil {
				t.Fatalf("Enqueue: %v", err)
			}
		}

		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			msgs, err := repo.FetchPending(ctx, tx, 10, later())
			if err != nil {
				return err
			}
			if len(msgs) != 2 || msgs[0].ID != first.ID || msgs[1].Kind != model.OutboxStorageDelete {
				t.Errorf("unexpected pending set: %+v", msgs)
			}
			return repo.MarkSent(ctx, tx, first.ID)
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
		if n, _ := repo.CountPending(ctx, nil); n != 1 {
			t.Fatalf("expected 1 pending, got %d", n)
		}
	})

	t.Run("locked rows are skipped by a concurrent relay", func(t *testing.T) {
		cleanup(t)
		m := model.NewOutboxMessage(model.OutboxJobCreated, []byte(`{}`))
		_ = repo.Enqueue(ctx, nil, m)

		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			held, err := repo.FetchPending(ctx, tx, 10, later())
			if err != nil || len(held) != 1 {
				t.Fatalf("first relay = (%d, %v)", len(held), err)
			}
			return tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, other repository.Tx) error {
				msgs, err := repo.FetchPending(ctx, other, 10, later())
				if err != nil {
					return err
				}
				if len(msgs) != 0 {
					t.Errorf("expected locked row to be skipped, got %d", len(msgs))
				}
				return nil
			})
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
	})

	t.Run("rows younger than the cutoff are left alone", func(t *testing.T) {
		cleanup(t)
		fresh := model.NewOutboxMessage(model.OutboxJobCreated, []byte(`{}`))
		_ = repo.Enqueue(ctx, nil, fresh)

		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			msgs, err := repo.FetchPending(ctx, tx, 10, fresh.CreatedAt.Add(-time.Second))
			if err != nil {
				return err
			}
			if len(msgs) != 0 {
				t.Errorf("expected fresh row to be skipped, got %d", len(msgs))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx: %v", err)
		}
	})

	t.Run("failures are counted", func(t *testing.T) {
		cleanup(t)
		m := model.NewOutboxMessage(model.OutboxJobCreated, []byte(`{}`))
		_ = repo.Enqueue(ctx, nil, m)
		_ = repo.MarkFailed(ctx, nil, m.ID, "first")
		_ = repo.MarkFailed(ctx, nil, m.ID, "second")

		var attempts int
		var lastErr string
		if err := testPool.QueryRow(ctx, `SELECT attempts, last_error FROM outbox_messages WHERE id = $1`, m.ID).Scan(&attempts, &lastErr); err != nil {
			t.Fatalf("query: %v", err)
		}
		if attempts != 2 || lastErr != "second" {
			t.Errorf("got attempts=%d last_error=%q", attempts, lastErr)
		}
		if err := repo.MarkSent(ctx, nil, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("fetch outside a transaction is refused", func(t *testing.T) {
		if _, err := repo.FetchPending(ctx, nil, 1, later()); !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Fatalf("expected ErrInvalidExecContext, got %v", err)
		}
	})
}
