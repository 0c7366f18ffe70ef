// Package storagetest opens throwaway seeded stores for tests.
package storagetest

import (
	"context"
	"testing"

	"complaints/backend/internal/kv"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/storage"
)

// New returns an initialized store over an in-memory KV. The store is closed
// when the test ends.
func New(t testing.TB) *storage.Store {
	t.Helper()
	return NewWithKV(t, kv.NewMemory())
}

// NewWithKV returns an initialized store persisting to store.
func NewWithKV(t testing.TB, store kv.KV) *storage.Store {
	t.Helper()
	s := storage.New(store, storage.Options{WorkDir: t.TempDir(), Logger: logging.Discard()})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
