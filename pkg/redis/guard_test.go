package redis

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	keys map[string]string
	err  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{keys: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = "1"
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "px:idemp:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestEventGuardMarksOnce(t *testing.T) {
	guard := NewEventGuard(newFakeStore(), "payment-webhook", time.Hour)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil || seen {
		t.Fatalf("first delivery should be fresh, seen=%v err=%v", seen, err)
	}
	seen, err = guard.CheckAndMark(ctx, "evt_1")
	if err != nil || !seen {
		t.Fatalf("second delivery should be marked, seen=%v err=%v", seen, err)
	}
}

func TestEventGuardDeleteAllowsRetry(t *testing.T) {
	guard := NewEventGuard(newFakeStore(), "payment-webhook", time.Hour)
	ctx := context.Background()

	if _, err := guard.CheckAndMark(ctx, "evt_2"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := guard.Delete(ctx, "evt_2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seen, err := guard.CheckAndMark(ctx, "evt_2")
	if err != nil || seen {
		t.Fatalf("deleted event should be fresh again, seen=%v err=%v", seen, err)
	}
}

func TestEventGuardPropagatesStoreErrors(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	guard := NewEventGuard(store, "payment-webhook", time.Hour)

	if _, err := guard.CheckAndMark(context.Background(), "evt_3"); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
