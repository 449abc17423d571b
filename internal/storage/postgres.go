package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/floorplan-inventory/backend/internal/config"
)

// PostgresStore implements BlobStore using a single PostgreSQL table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to cfg.DatabaseURL and creates the blob table.
func NewPostgresStore(cfg *config.Config, logger *zap.Logger) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		pool:   pool,
		logger: logger,
	}

	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL blob store")
	return store, nil
}

// migrate creates the blob table if it doesn't exist.
func (s *PostgresStore) migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS state_blobs (
			key VARCHAR(256) PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
	`

	_, err := s.pool.Exec(ctx, query)
	return err
}

// Get retrieves the blob stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM state_blobs WHERE key = $1`

	var value []byte
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to get blob", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}

	return value, nil
}

// Put upserts the blob under key.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO state_blobs (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, key, value, time.Now().UTC()); err != nil {
		s.logger.Error("Failed to put blob", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to put %q: %w", key, err)
	}

	s.logger.Debug("Stored blob", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Delete removes the blob under key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM state_blobs WHERE key = $1`, key); err != nil {
		s.logger.Error("Failed to delete blob", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	s.logger.Info("Closed database connection")
	return nil
}
