package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type OutboxKind string

const (
	// OutboxJobCreated is published to the broker for the worker tier.
	OutboxJobCreated OutboxKind = "job.created"
	// OutboxStorageDelete asks the storage service to drop objects whose job rows
	// are already gone.
	OutboxStorageDelete OutboxKind = "storage.delete"
)

// OutboxMessage is a side effect recorded in the same transaction as the state
// change that caused it, and delivered after commit.
type OutboxMessage struct {
	ID        string
	Kind      OutboxKind
	Payload   []byte
	Attempts  int
	LastError string
	CreatedAt time.Time
	SentAt    *time.Time
}

func NewOutboxMessage(kind OutboxKind, payload []byte) *OutboxMessage {
	now := time.Now().UTC()
	return &OutboxMessage{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: now,
	}
}

// StorageDeletion is the payload of an OutboxStorageDelete message.
type StorageDeletion struct {
	StorageIDs []string `json:"storageIds"`
	UserID     string   `json:"userId"`
}
