package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/ports/adapter"
	"media-job-intake/internal/infra/metrics"
)

var _ adapter.StorageService = (*Client)(nil)

const (
	headerUserID = "user_id"
	maxBodyBytes = 1 << 20
)

// Client talks to the storage service REST API.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid storage base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) endpoint(segments ...string) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/storage")
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// do sends req and returns the body of a 2xx response. Everything else is
// reported as domain.ErrExternalService.
func (c *Client) do(req *http.Request, op, userID string) ([]byte, error) {
	req.Header.Set(headerUserID, userID)
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncStorageRequest(op, 0)
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrExternalService, op, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExternalService, op, err)
	}
	defer resp.Body.Close()
	metrics.IncStorageRequest(op, resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", domain.ErrExternalService, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d: %s", domain.ErrExternalService, op, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// ResolvePath calls GET /storage/getPath/{id}. The body is the bare path.
func (c *Client) ResolvePath(ctx context.Context, storageID, userID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("getPath", storageID), nil)
	if err != nil {
		return "", err
	}
	body, err := c.do(req, "get_path", userID)
	if err != nil {
		return "", err
	}
	path := strings.TrimSpace(string(body))
	if path == "" {
		return "", fmt.Errorf("%w: get_path: empty path for %s", domain.ErrExternalService, storageID)
	}
	return path, nil
}

// AllocateOutputPath calls GET /storage/generateOutputPath/{filename}/{contentType}.
func (c *Client) AllocateOutputPath(ctx context.Context, fileName, mediaType, userID string) (adapter.OutputLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("generateOutputPath", fileName, mediaType), nil)
	if err != nil {
		return adapter.OutputLocation{}, err
	}
	body, err := c.do(req, "generate_output_path", userID)
	if err != nil {
		return adapter.OutputLocation{}, err
	}
	var out adapter.OutputLocation
	if err := json.Unmarshal(body, &out); err != nil {
		return adapter.OutputLocation{}, fmt.Errorf("%w: generate_output_path: decode: %v", domain.ErrExternalService, err)
	}
	if out.Path == "" || out.StorageID == "" {
		return adapter.OutputLocation{}, fmt.Errorf("%w: generate_output_path: incomplete location", domain.ErrExternalService)
	}
	return out, nil
}

// DeleteObjects calls DELETE /storage/delete with the ids as a JSON array and
// returns the ids the service reports as deleted.
func (c *Client) DeleteObjects(ctx context.Context, storageIDs []string, userID string) ([]string, error) {
	if len(storageIDs) == 0 {
		return nil, errors.New("no storage ids to delete")
	}
	payload, err := json.Marshal(storageIDs)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("delete"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(req, "delete", userID)
	if err != nil {
		return nil, err
	}
	var deleted []string
	if len(bytes.TrimSpace(body)) == 0 {
		return deleted, nil
	}
	if err := json.Unmarshal(body, &deleted); err != nil {
		return nil, fmt.Errorf("%w: delete: decode: %v", domain.ErrExternalService, err)
	}
	return deleted, nil
}
