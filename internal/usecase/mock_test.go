//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"media-job-intake/internal/domain"
	"media-job-intake/internal/domain/model"
	"media-job-intake/internal/domain/ports/adapter"
	"media-job-intake/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Repositories
// =============================

// ---- In-memory JobRepository ----

type MockJobRepo struct {
	mu    sync.Mutex
	data  map[string]*model.Job
	clock time.Time

	CreateFunc func(ctx context.Context, tx repository.Tx, job *model.Job) error
	CountFunc  func(ctx context.Context, tx repository.Tx, status model.JobStatus, before time.Time) (int, error)
}

var _ repository.JobRepository = (*MockJobRepo)(nil)

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{
		data:  map[string]*model.Job{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Seed stores a copy of j, assigning an id and a creation time when missing.
func (r *MockJobRepo) Seed(j model.Job) *model.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if j.CreatedAt.IsZero() {
		r.clock = r.clock.Add(time.Second)
		j.CreatedAt = r.clock
	}
	cp := j
	r.data[j.ID] = &cp
	return &cp
}

func (r *MockJobRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

func (r *MockJobRepo) Get(id string) (model.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return model.Job{}, false
	}
	return *j, true
}

func (r *MockJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, job)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job.ID = uuid.NewString()
	r.clock = r.clock.Add(time.Second)
	job.CreatedAt = r.clock
	cp := *job
	r.data[job.ID] = &cp
	return nil
}

func (r *MockJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *MockJobRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.JobStatus, size, duration string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.Status = status
	j.FinalFileSize = size
	j.Duration = duration
	return nil
}

func (r *MockJobRepo) StorageIDsForOwner(ctx context.Context, tx repository.Tx, ids []string, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, id := range ids {
		if j, ok := r.data[id]; ok && j.UserID == userID {
			out = append(out, j.StorageIDOutput)
		}
	}
	return out, nil
}

func (r *MockJobRepo) DeleteForOwner(ctx context.Context, tx repository.Tx, ids []string, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if j, ok := r.data[id]; ok && j.UserID == userID {
			delete(r.data, id)
			n++
		}
	}
	return n, nil
}

func (r *MockJobRepo) ListByOwner(ctx context.Context, tx repository.Tx, userID string) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Job
	for _, j := range r.data {
		if j.UserID == userID {
			cp := *j
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out, nil
}

func (r *MockJobRepo) CountByStatusCreatedBefore(ctx context.Context, tx repository.Tx, status model.JobStatus, before time.Time) (int, error) {
	if r.CountFunc != nil {
		return r.CountFunc(ctx, tx, status, before)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, j := range r.data {
		if j.Status == status && j.CreatedAt.Before(before) {
			n++
		}
	}
	return n, nil
}

// ---- In-memory OutboxRepository ----

type MockOutboxRepo struct {
	mu    sync.Mutex
	order []string
	data  map[string]*model.OutboxMessage

	EnqueueFunc func(ctx context.Context, tx repository.Tx, msg *model.OutboxMessage) error
}

var _ repository.OutboxRepository = (*MockOutboxRepo)(nil)

func NewMockOutboxRepo() *MockOutboxRepo {
	return &MockOutboxRepo{data: map[string]*model.OutboxMessage{}}
}

func (r *MockOutboxRepo) Enqueue(ctx context.Context, tx repository.Tx, msg *model.OutboxMessage) error {
	if r.EnqueueFunc != nil {
		return r.EnqueueFunc(ctx, tx, msg)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.data[msg.ID] = &cp
	r.order = append(r.order, msg.ID)
	return nil
}

func (r *MockOutboxRepo) FetchPending(ctx context.Context, tx repository.Tx, limit int, createdBefore time.Time) ([]*model.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutboxMessage
	for _, id := range r.order {
		m := r.data[id]
		if m.SentAt != nil || !m.CreatedAt.Before(createdBefore) {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MockOutboxRepo) MarkSent(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	m.SentAt = &now
	return nil
}

func (r *MockOutboxRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string, lastErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Attempts++
	m.LastError = lastErr
	return nil
}

func (r *MockOutboxRepo) CountPending(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.data {
		if m.SentAt == nil {
			n++
		}
	}
	return n, nil
}

// Backdate moves every message's CreatedAt d into the past.
func (r *MockOutboxRepo) Backdate(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.data {
		m.CreatedAt = m.CreatedAt.Add(-d)
	}
}

// Messages returns copies in enqueue order.
func (r *MockOutboxRepo) Messages() []model.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.OutboxMessage, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.data[id])
	}
	return out
}

// ---- TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock StorageService ----

type MockStorage struct {
	mu      sync.Mutex
	Deleted [][]string

	ResolvePathFunc func(ctx context.Context, storageID, userID string) (string, error)
	AllocateFunc    func(ctx context.Context, fileName, mediaType, userID string) (adapter.OutputLocation, error)
	DeleteFunc      func(ctx context.Context, storageIDs []string, userID string) ([]string, error)
}

var _ adapter.StorageService = (*MockStorage)(nil)

func (m *MockStorage) ResolvePath(ctx context.Context, storageID, userID string) (string, error) {
	if m.ResolvePathFunc != nil {
		return m.ResolvePathFunc(ctx, storageID, userID)
	}
	return "/data/in/" + storageID, nil
}

func (m *MockStorage) AllocateOutputPath(ctx context.Context, fileName, mediaType, userID string) (adapter.OutputLocation, error) {
	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, fileName, mediaType, userID)
	}
	return adapter.OutputLocation{Path: "/data/out/result." + mediaType, StorageID: "out-" + fileName}, nil
}

func (m *MockStorage) DeleteObjects(ctx context.Context, storageIDs []string, userID string) ([]string, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, storageIDs, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, append([]string(nil), storageIDs...))
	return storageIDs, nil
}

func (m *MockStorage) DeleteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deleted)
}

// ---- Mock EventPublisher ----

type published struct {
	Key  string
	Body []byte
}

type MockPublisher struct {
	mu   sync.Mutex
	Sent []published

	PublishFunc func(ctx context.Context, routingKey string, body []byte) error
}

var _ adapter.EventPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, routingKey, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, published{Key: routingKey, Body: append([]byte(nil), body...)})
	return nil
}

func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// ---- Mock SubmissionLimiter ----

type MockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	calls  int
	Err    error
}

var _ adapter.SubmissionLimiter = (*MockLimiter)(nil)

func (m *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return false, m.Err
	}
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[key]++
	return m.counts[key] <= limit, nil
}

func (m *MockLimiter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var errBrokerDown = errors.New("broker unavailable")
