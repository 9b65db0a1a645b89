// Package localstore keeps the domain collections as JSON documents under
// fixed keys of a kvstore.Store.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"allowance-app-go/internal/kvstore"
	"allowance-app-go/pkg/logger"
)

const (
	KeyParents       = "parents"
	KeyChildren      = "children"
	KeyTasks         = "tasks"
	KeyMoneyRequests = "moneyRequests"
	KeyTransactions  = "transactions"
	KeySession       = "user"
)

// scope routes reads and writes either straight to the store or, inside a
// Transaction, to the open kvstore.Tx.
type scope struct {
	store kvstore.Store
	tx    kvstore.Tx
	log   logger.Logger
}

func (s scope) reader() kvstore.Reader {
	if s.tx != nil {
		return s.tx
	}
	return s.store
}

func (s scope) write(ctx context.Context, fn func(kvstore.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.store.Update(ctx, fn)
}

// loadList decodes the JSON array stored at key. A missing or malformed
// value reads as an empty collection; the latter is logged.
func loadList[T any](ctx context.Context, s scope, key string) ([]T, error) {
	raw, err := s.reader().Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return make([]T, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn("malformed collection, treating as empty", "key", key, "err", err)
		return make([]T, 0), nil
	}
	if items == nil {
		items = make([]T, 0)
	}
	return items, nil
}

func saveList[T any](ctx context.Context, s scope, key string, items []T) error {
	if items == nil {
		items = make([]T, 0)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.write(ctx, func(tx kvstore.Tx) error {
		return tx.Put(ctx, key, raw)
	})
}
