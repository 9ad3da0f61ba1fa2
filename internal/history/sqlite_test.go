package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	started := time.UnixMilli(1_700_000_000_000)
	rec := Record{
		BuildID:    "b-1",
		StartedAt:  started,
		Duration:   1500 * time.Millisecond,
		Outcome:    "success",
		Resources:  12,
		Bytes:      4096,
		ConfigHash: "abc",
	}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, ok, err := store.Get(ctx, "b-1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, started)
	}
	got.StartedAt = started
	if got != rec {
		t.Errorf("got %+v, want %+v", got, rec)
	}

	_, ok, err = store.Get(ctx, "missing")
	if err != nil || ok {
		t.Errorf("expected missing record, ok=%v err=%v", ok, err)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"a", "b", "c"} {
		rec := Record{BuildID: id, StartedAt: base.Add(time.Duration(i) * time.Minute), Outcome: "success"}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := store.Append(ctx, Record{BuildID: "d", StartedAt: base.Add(time.Hour), Outcome: "failed", Error: "boom"}); err != nil {
		t.Fatalf("append d: %v", err)
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].BuildID != "d" || recent[1].BuildID != "c" {
		t.Fatalf("unexpected order: %+v", recent)
	}
	if recent[0].Error != "boom" {
		t.Errorf("expected error text, got %q", recent[0].Error)
	}
}

func TestPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Append(t.Context(), Record{BuildID: "x", StartedAt: time.Now(), Outcome: "success"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = store.Close()

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if _, ok, err := reopened.Get(t.Context(), "x"); err != nil || !ok {
		t.Fatalf("expected persisted record, ok=%v err=%v", ok, err)
	}
}
