package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"allowance-app-go/internal/kvstore"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "allowance.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestPutGetDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "parents"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Update(ctx, func(tx kvstore.Tx) error {
		return tx.Put(ctx, "parents", []byte(`[{"id":"a"}]`))
	}); err != nil {
		t.Fatalf("put: %v", err)
	}

	value, err := store.Get(ctx, "parents")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != `[{"id":"a"}]` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := store.Update(ctx, func(tx kvstore.Tx) error {
		return tx.Put(ctx, "parents", []byte(`[]`))
	}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _ = store.Get(ctx, "parents")
	if string(value) != `[]` {
		t.Fatalf("expected overwrite, got %q", value)
	}

	if err := store.Update(ctx, func(tx kvstore.Tx) error {
		return tx.Delete(ctx, "parents")
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "parents"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUpdateRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Update(ctx, func(tx kvstore.Tx) error {
		if err := tx.Put(ctx, "children", []byte(`[1]`)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.Get(ctx, "children"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowance.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Update(ctx, func(tx kvstore.Tx) error {
		return tx.Put(ctx, "user", []byte(`{"id":"p1"}`))
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, err := reopened.Get(ctx, "user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != `{"id":"p1"}` {
		t.Fatalf("unexpected value %q", value)
	}
}
