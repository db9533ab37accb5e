package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore is a DocumentStore backed by the documents table
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore connects to PostgreSQL and returns a PostgresStore
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool wraps an existing pool
func NewPostgresStoreWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Get decodes the document into dst
func (s *PostgresStore) Get(ctx context.Context, collection, key string, dst interface{}) (bool, error) {
	query := `
		SELECT body
		FROM documents
		WHERE collection = $1 AND key = $2
	`

	var body []byte
	err := s.pool.QueryRow(ctx, query, collection, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get document %s/%s: %w", collection, key, err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return false, fmt.Errorf("failed to decode document %s/%s: %w", collection, key, err)
	}

	return true, nil
}

// Set creates or overwrites the document
func (s *PostgresStore) Set(ctx context.Context, collection, key string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}

	query := `
		INSERT INTO documents (collection, key, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key) DO UPDATE
		SET body = EXCLUDED.body, updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, collection, key, string(body)); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, key, err)
	}

	return nil
}

// Create stores the document only if absent
func (s *PostgresStore) Create(ctx context.Context, collection, key string, doc interface{}) (bool, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}

	query := `
		INSERT INTO documents (collection, key, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key) DO NOTHING
		RETURNING key
	`

	var inserted string
	err = s.pool.QueryRow(ctx, query, collection, key, string(body)).Scan(&inserted)
	if err != nil {
		// On conflict nothing is returned
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create document %s/%s: %w", collection, key, err)
	}

	return true, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var _ DocumentStore = (*PostgresStore)(nil)
