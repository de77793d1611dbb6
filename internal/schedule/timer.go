package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/awakeful/alarmd/internal/model"
)

// FireFunc receives a notification when its scheduled time arrives. It is
// called on the timer goroutine; implementations hand off promptly.
type FireFunc func(model.ScheduledNotification)

type timerEntry struct {
	notification model.ScheduledNotification
	timer        *time.Timer
}

// TimerScheduler is the in-process Scheduler implementation the daemon
// runs: one time.Timer per outstanding notification, fired entries removed
// before dispatch so ListScheduled never reports a delivered notification.
type TimerScheduler struct {
	mu      sync.Mutex
	fire    FireFunc
	entries map[string]*timerEntry
	closed  bool
}

func NewTimerScheduler(fire FireFunc) *TimerScheduler {
	if fire == nil {
		fire = func(model.ScheduledNotification) {}
	}
	return &TimerScheduler{
		fire:    fire,
		entries: make(map[string]*timerEntry),
	}
}

func (ts *TimerScheduler) ScheduleAt(_ context.Context, at time.Time, payload model.NotificationPayload) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.closed {
		return "", context.Canceled
	}
	id := uuid.NewString()
	notification := model.ScheduledNotification{ID: id, Time: at, Payload: payload}
	entry := &timerEntry{notification: notification}
	entry.timer = time.AfterFunc(time.Until(at), func() {
		ts.mu.Lock()
		_, live := ts.entries[id]
		delete(ts.entries, id)
		closed := ts.closed
		ts.mu.Unlock()
		if live && !closed {
			ts.fire(notification)
		}
	})
	ts.entries[id] = entry
	return id, nil
}

// Cancel stops a pending notification. Unknown ids are a no-op.
func (ts *TimerScheduler) Cancel(_ context.Context, id string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	entry, ok := ts.entries[id]
	if !ok {
		return nil
	}
	entry.timer.Stop()
	delete(ts.entries, id)
	return nil
}

func (ts *TimerScheduler) ListScheduled(_ context.Context) ([]model.ScheduledNotification, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]model.ScheduledNotification, 0, len(ts.entries))
	for _, entry := range ts.entries {
		out = append(out, entry.notification)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close stops all pending timers. Entries already past their fire point
// may still invoke FireFunc; Close suppresses their dispatch.
func (ts *TimerScheduler) Close() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.closed = true
	for id, entry := range ts.entries {
		entry.timer.Stop()
		delete(ts.entries, id)
	}
}
