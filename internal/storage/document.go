package storage

import (
	"context"
	"errors"
)

var (
	// ErrMalformedDocument is returned when a stored document does not have the expected shape
	ErrMalformedDocument = errors.New("malformed document")

	// ErrSeal is returned when the at-rest envelope cannot be applied or removed
	ErrSeal = errors.New("payload seal failure")
)

// DocumentStore is a key-value store of JSON documents grouped in collections.
// No multi-document transactions are assumed.
type DocumentStore interface {
	// Get decodes the document into dst. It reports false, without error, when absent.
	Get(ctx context.Context, collection, key string, dst interface{}) (bool, error)

	// Set creates or overwrites the document.
	Set(ctx context.Context, collection, key string, doc interface{}) error

	// Create stores the document only if no document exists under key.
	// It reports whether the document was written.
	Create(ctx context.Context, collection, key string, doc interface{}) (bool, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's connections.
	Close() error
}
