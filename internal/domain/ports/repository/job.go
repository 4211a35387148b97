package repository

import (
	"context"
	"time"

	"media-job-intake/internal/domain/model"
)

type JobRepository interface {
	// Create inserts the job, assigning ID and CreatedAt from the store.
	Create(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)
	// UpdateStatus overwrites status, size and duration. Returns domain.ErrNotFound
	// when no row has the id.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.JobStatus, size, duration string) error
	// StorageIDsForOwner returns the output storage ids of the jobs in ids owned by userID.
	StorageIDsForOwner(ctx context.Context, tx Tx, ids []string, userID string) ([]string, error)
	DeleteForOwner(ctx context.Context, tx Tx, ids []string, userID string) (int64, error)
	// ListByOwner returns the user's jobs in creation order.
	ListByOwner(ctx context.Context, tx Tx, userID string) ([]*model.Job, error)
	CountByStatusCreatedBefore(ctx context.Context, tx Tx, status model.JobStatus, before time.Time) (int, error)
}
