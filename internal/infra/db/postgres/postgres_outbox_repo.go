package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/model"
	"media-job-intake/internal/domain/ports/repository"
)

var _ repository.OutboxRepository = (*outboxRepo)(nil)

type outboxRepo struct {
	pool *pgxpool.Pool
}

func NewOutboxRepo(pool *pgxpool.Pool) *outboxRepo {
	return &outboxRepo{pool: pool}
}

func (r *outboxRepo) Enqueue(ctx context.Context, tx repository.Tx, msg *model.OutboxMessage) error {
	const q = `
INSERT INTO outbox_messages (id, kind, payload, created_at)
VALUES ($1, $2, $3, $4);`

	_, err := execSQL(ctx, r.pool, tx, q, msg.ID, string(msg.Kind), msg.Payload, msg.CreatedAt)
	return err
}

func (r *outboxRepo) FetchPending(ctx context.Context, tx repository.Tx, limit int, createdBefore time.Time) ([]*model.OutboxMessage, error) {
	if tx == nil {
		// row locks only live as long as a transaction
		return nil, domain.ErrInvalidExecContext
	}
	const q = `
SELECT id, kind, payload, attempts, last_error, created_at
FROM outbox_messages
WHERE sent_at IS NULL AND created_at < $2
ORDER BY created_at, id
LIMIT $1
FOR UPDATE SKIP LOCKED;`

	rows, err := queryRows(ctx, r.pool, tx, q, limit, createdBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.OutboxMessage
	for rows.Next() {
		var (
			m    model.OutboxMessage
			kind string
		)
		if err := rows.Scan(&m.ID, &kind, &m.Payload, &m.Attempts, &m.LastError, &m.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		m.Kind = model.OutboxKind(kind)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkSent(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE outbox_messages SET sent_at = now() WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *outboxRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, lastErr string) error {
	const q = `
UPDATE outbox_messages
SET attempts = attempts + 1, last_error = $2
WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, lastErr)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *outboxRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM outbox_messages WHERE sent_at IS NULL;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
