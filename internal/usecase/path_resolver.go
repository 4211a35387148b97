package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/ports/adapter"
	"media-job-intake/internal/infra/metrics"
)

const defaultResolveTimeout = 10 * time.Second

// ResolvedPaths holds the physical locations a job reads from and writes to.
type ResolvedPaths struct {
	InputPath       string
	OutputPath      string
	OutputStorageID string
}

// PathResolver looks up the input path and allocates the output path
// concurrently. Both calls must succeed.
type PathResolver struct {
	storage adapter.StorageService
	timeout time.Duration
	log     *zerolog.Logger
}

func NewPathResolver(storage adapter.StorageService, timeout time.Duration, logger *zerolog.Logger) *PathResolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &PathResolver{storage: storage, timeout: timeout, log: logger}
}

// Resolve fails fast: the first error cancels the sibling call, and any failure
// (including the deadline) is reported as domain.ErrExternalService.
func (r *PathResolver) Resolve(ctx context.Context, storageID, fileName, mediaType, userID string) (ResolvedPaths, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		inputPath string
		output    adapter.OutputLocation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.storage.ResolvePath(gctx, storageID, userID)
		if err != nil {
			return fmt.Errorf("resolve input %s: %w", storageID, err)
		}
		inputPath = p
		return nil
	})
	g.Go(func() error {
		out, err := r.storage.AllocateOutputPath(gctx, fileName, mediaType, userID)
		if err != nil {
			return fmt.Errorf("allocate output for %s: %w", fileName, err)
		}
		output = out
		return nil
	})

	err := g.Wait()
	metrics.ObservePathResolution(time.Since(start), err == nil)
	if err != nil {
		r.log.Error().Err(err).
			Str("user_id", userID).
			Str("storage_id", storageID).
			Msg("Storage service error during process creation")
		if errors.Is(err, domain.ErrExternalService) {
			return ResolvedPaths{}, err
		}
		return ResolvedPaths{}, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	if inputPath == "" || output.Path == "" || output.StorageID == "" {
		return ResolvedPaths{}, fmt.Errorf("%w: storage returned an empty location", domain.ErrExternalService)
	}
	return ResolvedPaths{InputPath: inputPath, OutputPath: output.Path, OutputStorageID: output.StorageID}, nil
}
