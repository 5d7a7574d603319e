// Package storage defines the record store port and the key scheme used to
// scope short link records to their owners. The store itself is an external
// durable key-value service; this package only adapts it.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when the requested key does not exist in the store.
var ErrKeyNotFound = errors.New("key not found")

// Store is the key-value capability consumed by the registry and the redirector.
// Implementations provide no cross-key guarantees; concurrent writers to the
// same key serialize as last-write-wins.
type Store interface {
	// Get retrieves the value stored at key.
	// Returns ErrKeyNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value at key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// PutIfAbsent stores value at key only if the key does not exist yet.
	// Returns false without modifying the store when the key is already present.
	PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes the key from the store.
	// Returns ErrKeyNotFound if the key is absent.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys sharing the given byte prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
