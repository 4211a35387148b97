package adapter

import "context"

// OutputLocation is a freshly allocated output object.
type OutputLocation struct {
	Path      string `json:"path"`
	StorageID string `json:"storageId"`
}

// StorageService is the remote service that owns physical file locations.
// Any error status surfaces as domain.ErrExternalService.
type StorageService interface {
	ResolvePath(ctx context.Context, storageID, userID string) (string, error)
	AllocateOutputPath(ctx context.Context, fileName, mediaType, userID string) (OutputLocation, error)
	DeleteObjects(ctx context.Context, storageIDs []string, userID string) ([]string, error)
}
