// Package storage provides key-value blob stores for the persisted session
// state. A blob store is the server-side stand-in for browser local storage:
// one opaque value per key, last write wins.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/config"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("blob not found")

// BlobStore defines the interface for blob storage operations.
type BlobStore interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes the value under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying connection or file handles.
	Close() error
}

// New opens the blob store selected by cfg.StorageBackend.
func New(cfg *config.Config, logger *zap.Logger) (BlobStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewFileStore(cfg.DataDir, logger)
	case config.BackendRedis:
		return NewRedisStore(cfg, logger)
	case config.BackendPostgres:
		return NewPostgresStore(cfg, logger)
	case config.BackendBadger:
		return NewBadgerStore(cfg.BadgerPath, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
