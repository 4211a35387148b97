package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/model"
	"media-job-intake/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *jobRepo {
	return &jobRepo{pool: pool}
}

const jobColumns = `id::text, storage_id_input, storage_id_output, command, status, user_id,
  duration, file_name, final_file_size, is_video, created_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j      model.Job
		status string
	)
	err := row.Scan(
		&j.ID, &j.StorageIDInput, &j.StorageIDOutput, &j.Command, &status, &j.UserID,
		&j.Duration, &j.FileName, &j.FinalFileSize, &j.IsVideo, &j.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.JobStatus(status)
	return &j, nil
}

func (r *jobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	const q = `
INSERT INTO jobs (storage_id_input, storage_id_output, command, status, user_id,
                  duration, file_name, final_file_size, is_video)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id::text, created_at;`

	row, err := pickRow(ctx, r.pool, tx, q,
		job.StorageIDInput, job.StorageIDOutput, job.Command, string(job.Status), job.UserID,
		job.Duration, job.FileName, job.FinalFileSize, job.IsVideo)
	if err != nil {
		return err
	}
	return row.Scan(&job.ID, &job.CreatedAt)
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.JobStatus, size, duration string) error {
	const q = `
UPDATE jobs
SET status = $2, final_file_size = $3, duration = $4
WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, string(status), size, duration)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) StorageIDsForOwner(ctx context.Context, tx repository.Tx, ids []string, userID string) ([]string, error) {
	const q = `
SELECT storage_id_output
FROM jobs
WHERE id = ANY($1::uuid[]) AND user_id = $2
ORDER BY created_at, id;`

	rows, err := queryRows(ctx, r.pool, tx, q, ids, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *jobRepo) DeleteForOwner(ctx context.Context, tx repository.Tx, ids []string, userID string) (int64, error) {
	const q = `DELETE FROM jobs WHERE id = ANY($1::uuid[]) AND user_id = $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, ids, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *jobRepo) ListByOwner(ctx context.Context, tx repository.Tx, userID string) ([]*model.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE user_id = $1 ORDER BY created_at, id;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *jobRepo) CountByStatusCreatedBefore(ctx context.Context, tx repository.Tx, status model.JobStatus, before time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM jobs WHERE status = $1 AND created_at < $2;`
	row, err := pickRow(ctx, r.pool, tx, q, string(status), before)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
