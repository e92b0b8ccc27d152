package testsupport

import (
	"context"
	"encoding/json"
	"testing"

	"fieldsync/internal/config"
	"fieldsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewAction enqueues an action for tests using the provided store.
func NewAction(t testing.TB, store *queue.Store, kind queue.Kind, payload any) *queue.Action {
	t.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	action, err := store.Add(context.Background(), kind, raw)
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return action
}
