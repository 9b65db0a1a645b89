package inmemory

import (
	"context"
	"sync"

	"allowance-app-go/internal/kvstore"
)

type KVStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewKVStore() *KVStore {
	return &KVStore{
		items: make(map[string][]byte),
	}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	value, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, kvstore.ErrNotFound
	}

	return cloneBytes(value), nil
}

func (s *KVStore) Update(ctx context.Context, fn func(kvstore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &kvTx{
		base:    s.items,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for key := range tx.deletes {
		delete(s.items, key)
	}
	for key, value := range tx.writes {
		s.items[key] = value
	}
	return nil
}

func (s *KVStore) Close() error {
	return nil
}

type kvTx struct {
	base    map[string][]byte
	writes  map[string][]byte
	deletes map[string]struct{}
}

func (t *kvTx) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, deleted := t.deletes[key]; deleted {
		return nil, kvstore.ErrNotFound
	}
	if value, ok := t.writes[key]; ok {
		return cloneBytes(value), nil
	}
	value, ok := t.base[key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	return cloneBytes(value), nil
}

func (t *kvTx) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(t.deletes, key)
	t.writes[key] = cloneBytes(value)
	return nil
}

func (t *kvTx) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(t.writes, key)
	t.deletes[key] = struct{}{}
	return nil
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
