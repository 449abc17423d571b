package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const lockTimeout = 3 * time.Second

// FileStore keeps each blob in <dir>/<key>.json, guarded by a cross-process
// file lock so that a CLI and the service can share one data directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	logger.Info("Using file blob store", zap.String("dir", dir))
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) lock(ctx context.Context, path string, shared bool) (*flock.Flock, error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	fileLock := flock.New(path + ".lock")
	var (
		locked bool
		err    error
	)
	if shared {
		locked, err = fileLock.TryRLockContext(ctx, 100*time.Millisecond)
	} else {
		locked, err = fileLock.TryLockContext(ctx, 100*time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire file lock")
	}
	return fileLock, nil
}

// Get reads the blob stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	fileLock, err := s.lock(ctx, path, true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fileLock.Unlock() }()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Put writes the blob to a temporary file and renames it over the old one.
func (s *FileStore) Put(ctx context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	fileLock, err := s.lock(ctx, path, false)
	if err != nil {
		return err
	}
	defer func() { _ = fileLock.Unlock() }()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	s.logger.Debug("Stored blob", zap.String("path", path), zap.Int("bytes", len(value)))
	return nil
}

// Delete removes the blob file under key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	fileLock, err := s.lock(ctx, path, false)
	if err != nil {
		return err
	}
	defer func() { _ = fileLock.Unlock() }()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Close is a no-op; locks are released after every call.
func (s *FileStore) Close() error { return nil }
