package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/model"
	"media-job-intake/internal/domain/ports/adapter"
	"media-job-intake/internal/domain/ports/repository"
	"media-job-intake/internal/domain/transcode"
	"media-job-intake/internal/infra/logging"
	"media-job-intake/internal/infra/metrics"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

const (
	MsgProcessingStarted = "Processing started successfully"
	MsgStatusUpdated     = "Updated Status!"

	MsgProcessNotFound = "No process found"
	MsgNoValidFiles    = "No valid files found"
)

type JobUseCase interface {
	// Submit validates, resolves paths, compiles the command and records the job.
	Submit(ctx context.Context, req model.ConvertRequest, userID string) (*SubmitResult, error)
	// UpdateStatus overwrites status, size and duration of a job. Last writer wins.
	UpdateStatus(ctx context.Context, jobID string, status model.JobStatus, size, duration string) (string, error)
	// Delete removes the caller's jobs and schedules removal of their output objects.
	Delete(ctx context.Context, jobIDs []string, userID string) error
	List(ctx context.Context, userID string) ([]model.JobSummary, error)
}

// SubmitResult is returned once the job is durable.
type SubmitResult struct {
	Message       string           `json:"message"`
	Job           model.JobSummary `json:"process"`
	QueuePosition int              `json:"queueNo"`
}

// SubmitLimit caps submissions per user in a fixed window. Max <= 0 disables it.
type SubmitLimit struct {
	Max    int
	Window time.Duration
}

type jobUC struct {
	jobs       repository.JobRepository
	outbox     repository.OutboxRepository
	tm         repository.TransactionManager
	resolver   *PathResolver
	dispatcher *OutboxDispatcher
	limiter    adapter.SubmissionLimiter
	limit      SubmitLimit
	log        *zerolog.Logger
}

func NewJobUseCase(
	jobs repository.JobRepository,
	outbox repository.OutboxRepository,
	tm repository.TransactionManager,
	resolver *PathResolver,
	dispatcher *OutboxDispatcher,
	limiter adapter.SubmissionLimiter,
	limit SubmitLimit,
	logger *zerolog.Logger,
) *jobUC {
	l := logger.With().Str("component", "JobUseCase").Logger()
	return &jobUC{
		jobs:       jobs,
		outbox:     outbox,
		tm:         tm,
		resolver:   resolver,
		dispatcher: dispatcher,
		limiter:    limiter,
		limit:      limit,
		log:        &l,
	}
}

func (u *jobUC) Submit(ctx context.Context, req model.ConvertRequest, userID string) (*SubmitResult, error) {
	defer logging.TraceDuration(u.log, "JobUC.Submit")()
	log := logging.With(ctx, u.log)
	kind := string(req.Kind)

	log.Info().
		Str("kind", kind).
		Str("user_id", userID).
		Str("storage_id", req.StorageID).
		Msg("submit request received")

	if err := transcode.Validate(req); err != nil {
		metrics.IncJobSubmitted(kind, "rejected")
		log.Warn().Err(err).
			Str("user_id", userID).
			Str("file_name", req.FileName).
			Msg("request rejected")
		return nil, err
	}

	// Rejected requests never reach the limiter and do not spend quota.
	if err := u.allow(ctx, userID); err != nil {
		metrics.IncJobSubmitted(kind, "rate_limited")
		log.Warn().Str("user_id", userID).Msg("submission rate limit exceeded")
		return nil, err
	}

	paths, err := u.resolver.Resolve(ctx, req.StorageID, req.FileName, string(req.ToMediaType), userID)
	if err != nil {
		metrics.IncJobSubmitted(kind, "external_error")
		return nil, err
	}

	command, err := transcode.Compile(req, paths.InputPath, paths.OutputPath)
	if err != nil {
		return nil, u.creationFailure(log, kind, userID, req.StorageID, err)
	}
	log.Debug().Str("command", command).Msg("compiled transcode command")

	job := model.NewJob(
		req.StorageID,
		paths.OutputStorageID,
		command,
		userID,
		req.Duration,
		filepath.Base(paths.OutputPath),
		req.IsVideo(),
	)

	var msg *model.OutboxMessage
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.jobs.Create(ctx, tx, job); err != nil {
			return fmt.Errorf("persist job: %w", err)
		}
		payload, err := json.Marshal(model.NewJobCreatedEvent(job, paths.InputPath, paths.OutputPath))
		if err != nil {
			return fmt.Errorf("encode job created event: %w", err)
		}
		msg = model.NewOutboxMessage(model.OutboxJobCreated, payload)
		return u.outbox.Enqueue(ctx, tx, msg)
	})
	if err != nil {
		return nil, u.creationFailure(log, kind, userID, req.StorageID, err)
	}
	log.Info().Str("job_id", job.ID).Str("user_id", userID).Msg("job created")

	// The job and its event are durable; a broker outage only delays the event.
	if err := u.dispatcher.DeliverNow(ctx, msg); err != nil {
		log.Warn().Err(err).
			Str("job_id", job.ID).
			Str("message_id", msg.ID).
			Msg("job created event deferred to relay")
	}

	position, err := u.jobs.CountByStatusCreatedBefore(ctx, repository.NoTX, model.JobStatusWaiting, job.CreatedAt)
	if err != nil {
		return nil, u.creationFailure(log, kind, userID, req.StorageID, fmt.Errorf("count queue position: %w", err))
	}
	log.Info().Str("job_id", job.ID).Int("queue_position", position).Msg("queue position computed")

	metrics.IncJobSubmitted(kind, "accepted")
	return &SubmitResult{
		Message:       MsgProcessingStarted,
		Job:           job.Summary(),
		QueuePosition: position,
	}, nil
}

func (u *jobUC) allow(ctx context.Context, userID string) error {
	if u.limiter == nil || u.limit.Max <= 0 {
		return nil
	}
	ok, err := u.limiter.Allow(ctx, "submit:"+userID, u.limit.Max, u.limit.Window)
	if err != nil {
		// fail open: the limiter is advisory
		u.log.Error().Err(err).Str("user_id", userID).Msg("rate limiter unavailable")
		return nil
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

func (u *jobUC) creationFailure(log *zerolog.Logger, kind, userID, storageID string, err error) error {
	metrics.IncJobSubmitted(kind, "failed")
	log.Error().Err(err).
		Str("user_id", userID).
		Str("storage_id", storageID).
		Msg("Failed to create process")
	return domain.NewJobCreationError("", err)
}

func (u *jobUC) UpdateStatus(ctx context.Context, jobID string, status model.JobStatus, size, duration string) (string, error) {
	log := logging.With(ctx, u.log)
	log.Debug().
		Str("job_id", jobID).
		Str("status", string(status)).
		Str("file_size", size).
		Str("file_duration", duration).
		Msg("updating job")

	if _, err := uuid.Parse(jobID); err != nil {
		log.Warn().Str("job_id", jobID).Msg("job not found")
		return "", domain.NewNotFoundError(MsgProcessNotFound)
	}

	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.jobs.UpdateStatus(ctx, tx, jobID, status, size, duration)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("job_id", jobID).Msg("job not found")
			return "", domain.NewNotFoundError(MsgProcessNotFound)
		}
		return "", err
	}

	log.Info().Str("job_id", jobID).Str("status", string(status)).Msg("job status updated")
	return MsgStatusUpdated, nil
}

func (u *jobUC) Delete(ctx context.Context, jobIDs []string, userID string) error {
	log := logging.With(ctx, u.log)
	log.Info().Str("user_id", userID).Int("requested", len(jobIDs)).Msg("delete request received")

	ids := parseJobIDs(jobIDs)
	if len(ids) == 0 {
		log.Warn().Str("user_id", userID).Msg("no valid jobs found for deletion")
		return domain.NewNotFoundError(MsgNoValidFiles)
	}

	var (
		msg     *model.OutboxMessage
		deleted int64
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		storageIDs, err := u.jobs.StorageIDsForOwner(ctx, tx, ids, userID)
		if err != nil {
			return err
		}
		if len(storageIDs) == 0 {
			return domain.NewNotFoundError(MsgNoValidFiles)
		}
		if deleted, err = u.jobs.DeleteForOwner(ctx, tx, ids, userID); err != nil {
			return err
		}
		payload, err := json.Marshal(model.StorageDeletion{StorageIDs: storageIDs, UserID: userID})
		if err != nil {
			return fmt.Errorf("encode storage deletion: %w", err)
		}
		msg = model.NewOutboxMessage(model.OutboxStorageDelete, payload)
		return u.outbox.Enqueue(ctx, tx, msg)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("user_id", userID).Msg("no valid jobs found for deletion")
		}
		return err
	}
	metrics.AddJobsDeleted(int(deleted))

	if err := u.dispatcher.DeliverNow(ctx, msg); err != nil {
		log.Warn().Err(err).
			Str("user_id", userID).
			Str("message_id", msg.ID).
			Msg("storage deletion deferred to relay")
	}

	log.Info().Str("user_id", userID).Int64("deleted", deleted).Msg("jobs deleted")
	return nil
}

// parseJobIDs drops malformed ids and duplicates.
func parseJobIDs(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		key := id.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func (u *jobUC) List(ctx context.Context, userID string) ([]model.JobSummary, error) {
	logging.With(ctx, u.log).Debug().Str("user_id", userID).Msg("listing jobs")

	jobs, err := u.jobs.ListByOwner(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.JobSummary, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Summary())
	}
	return out, nil
}
