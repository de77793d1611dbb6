// Package testutil holds shared test fixtures: a migrated temp-dir store
// and an instantly-inspectable fake scheduler.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/awakeful/alarmd/internal/db"
	"github.com/awakeful/alarmd/internal/model"
)

func NewStore(t *testing.T) (*db.Store, context.Context) {
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

// FakeScheduler records scheduled notifications without arming timers.
// FailNext makes the next ScheduleAt call return an error, for exercising
// the log-and-continue paths.
type FakeScheduler struct {
	mu       sync.Mutex
	seq      int
	entries  map[string]model.ScheduledNotification
	FailNext bool
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{entries: make(map[string]model.ScheduledNotification)}
}

func (f *FakeScheduler) ScheduleAt(_ context.Context, at time.Time, payload model.NotificationPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNext {
		f.FailNext = false
		return "", fmt.Errorf("scheduler unavailable")
	}
	f.seq++
	id := fmt.Sprintf("n%d", f.seq)
	f.entries[id] = model.ScheduledNotification{ID: id, Time: at, Payload: payload}
	return id, nil
}

func (f *FakeScheduler) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func (f *FakeScheduler) ListScheduled(_ context.Context) ([]model.ScheduledNotification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ScheduledNotification, 0, len(f.entries))
	for _, n := range f.entries {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ForAlarm filters outstanding entries by alarm id.
func (f *FakeScheduler) ForAlarm(alarmID string) []model.ScheduledNotification {
	all, _ := f.ListScheduled(context.Background())
	out := all[:0]
	for _, n := range all {
		if n.Payload.AlarmID == alarmID {
			out = append(out, n)
		}
	}
	return out
}
