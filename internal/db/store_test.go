package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/awakeful/alarmd/internal/db"
)

func newStore(t *testing.T) (*db.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "alarmd-test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := db.ApplyMigrations(ctx, store.DB()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return store, ctx
}

func TestGetSnapshotMissingKey(t *testing.T) {
	store, ctx := newStore(t)
	if _, err := store.GetSnapshot(ctx, db.KeyAlarms); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutGetSnapshot(t *testing.T) {
	store, ctx := newStore(t)
	if err := store.PutSnapshot(ctx, db.KeySettings, `{"alarmDuration":10}`); err != nil {
		t.Fatalf("put snapshot: %v", err)
	}
	got, err := store.GetSnapshot(ctx, db.KeySettings)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if got != `{"alarmDuration":10}` {
		t.Fatalf("unexpected payload %q", got)
	}

	// Overwrite replaces, not appends.
	if err := store.PutSnapshot(ctx, db.KeySettings, `{"alarmDuration":5}`); err != nil {
		t.Fatalf("overwrite snapshot: %v", err)
	}
	got, err = store.GetSnapshot(ctx, db.KeySettings)
	if err != nil {
		t.Fatalf("get snapshot after overwrite: %v", err)
	}
	if got != `{"alarmDuration":5}` {
		t.Fatalf("unexpected payload after overwrite %q", got)
	}
}

func TestPutSnapshotsWritesAllKeys(t *testing.T) {
	store, ctx := newStore(t)
	entries := map[string]string{
		db.KeyAlarms:   `[]`,
		db.KeyHistory:  `[]`,
		db.KeySettings: `{}`,
	}
	if err := store.PutSnapshots(ctx, entries); err != nil {
		t.Fatalf("put snapshots: %v", err)
	}
	for key, want := range entries {
		got, err := store.GetSnapshot(ctx, key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		if got != want {
			t.Fatalf("key %s: got %q, want %q", key, got, want)
		}
	}
}

func TestPutSnapshotRejectsUnknownKey(t *testing.T) {
	store, ctx := newStore(t)
	if err := store.PutSnapshot(ctx, "bogus", `{}`); err == nil {
		t.Fatalf("expected check constraint to reject unknown key")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	store, ctx := newStore(t)
	if err := db.ApplyMigrations(ctx, store.DB()); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}
