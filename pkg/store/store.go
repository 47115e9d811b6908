// Package store implements the node's at-rest persistence contract: an
// opaque key/value interface with an in-memory implementation for tests
// and a file-backed implementation that seals every value with the same
// XChaCha20-Poly1305 AEAD pkg/group uses for group traffic, keyed by a
// device-local file key instead of a group key.
package store

import "context"

// Store is the persistence contract every durable subsystem (group
// credentials, topology cache, pending outbound queue) is written against.
// Keys are opaque application-chosen strings; values are opaque bytes the
// store never interprets.
type Store interface {
	// Get returns the value stored under key. The second return value is
	// false if key has never been Put or was Deleted.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value. The
	// implementation must copy value rather than retain the caller's
	// slice.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
