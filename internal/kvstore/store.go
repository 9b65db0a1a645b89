// Package kvstore defines the namespaced key-value storage the application
// persists its collections in.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kv entry not found")

type Reader interface {
	// Get returns ErrNotFound when the key has never been written or was deleted.
	Get(ctx context.Context, key string) ([]byte, error)
}

type Tx interface {
	Reader
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store applies every write staged inside one Update call atomically: either
// all keys change or none do.
type Store interface {
	Reader
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}
