// Package repo owns the canonical alarm, history and settings records.
// Every mutation persists the full snapshot and then notifies observers,
// which is what re-runs notification reconciliation.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/awakeful/alarmd/internal/db"
	"github.com/awakeful/alarmd/internal/model"
)

type Repository struct {
	mu            sync.Mutex
	store         *db.Store
	logger        *log.Logger
	now           func() time.Time
	alarms        []model.Alarm
	history       []model.AlarmHistory
	settings      model.AlarmSettings
	activeAlarmID string
	observers     []func()
}

func New(store *db.Store, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Default()
	}
	return &Repository{
		store:    store,
		logger:   logger,
		now:      time.Now,
		settings: model.DefaultSettings(),
	}
}

// WithClock overrides the time source used for ids and creation stamps.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// Subscribe registers a callback invoked after every persisted mutation.
// Callbacks run outside the repository lock and may read back state.
func (r *Repository) Subscribe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Load restores state from the snapshot store. Missing keys and malformed
// JSON degrade to defaults; only a store-level read failure is returned,
// and callers are expected to treat it as non-fatal.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alarms := []model.Alarm{}
	if payload, err := r.store.GetSnapshot(ctx, db.KeyAlarms); err == nil {
		if err := json.Unmarshal([]byte(payload), &alarms); err != nil {
			r.logger.Printf("repo: corrupt alarms snapshot, using defaults: %v", err)
			alarms = []model.Alarm{}
		}
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	history := []model.AlarmHistory{}
	if payload, err := r.store.GetSnapshot(ctx, db.KeyHistory); err == nil {
		if err := json.Unmarshal([]byte(payload), &history); err != nil {
			r.logger.Printf("repo: corrupt history snapshot, using defaults: %v", err)
			history = []model.AlarmHistory{}
		}
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	settings := model.DefaultSettings()
	if payload, err := r.store.GetSnapshot(ctx, db.KeySettings); err == nil {
		if err := json.Unmarshal([]byte(payload), &settings); err != nil {
			r.logger.Printf("repo: corrupt settings snapshot, using defaults: %v", err)
			settings = model.DefaultSettings()
		}
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	r.alarms = alarms
	if len(history) > model.HistoryLimit {
		history = history[:model.HistoryLimit]
	}
	r.history = history
	r.settings = settings
	return nil
}

// AddAlarm assigns an id and creation stamp and stores the alarm.
func (r *Repository) AddAlarm(ctx context.Context, draft model.Alarm) model.Alarm {
	r.mu.Lock()
	now := r.now()
	draft.ID = newAlarmID(now)
	draft.CreatedAt = now.UnixMilli()
	r.alarms = append(r.alarms, draft)
	r.persistLocked(ctx)
	r.mu.Unlock()
	r.notify()
	return draft
}

// UpdateAlarm merges the patch into the alarm. Unknown ids are a no-op.
func (r *Repository) UpdateAlarm(ctx context.Context, id string, patch model.AlarmPatch) {
	r.mu.Lock()
	changed := false
	for i, a := range r.alarms {
		if a.ID == id {
			r.alarms[i] = patch.Apply(a)
			changed = true
			break
		}
	}
	if changed {
		r.persistLocked(ctx)
	}
	r.mu.Unlock()
	if changed {
		r.notify()
	}
}

func (r *Repository) DeleteAlarm(ctx context.Context, id string) {
	r.mu.Lock()
	changed := false
	kept := r.alarms[:0]
	for _, a := range r.alarms {
		if a.ID == id {
			changed = true
			continue
		}
		kept = append(kept, a)
	}
	r.alarms = kept
	if changed {
		r.persistLocked(ctx)
	}
	r.mu.Unlock()
	if changed {
		r.notify()
	}
}

func (r *Repository) ToggleAlarm(ctx context.Context, id string) {
	r.mu.Lock()
	changed := false
	for i, a := range r.alarms {
		if a.ID == id {
			r.alarms[i].Enabled = !a.Enabled
			changed = true
			break
		}
	}
	if changed {
		r.persistLocked(ctx)
	}
	r.mu.Unlock()
	if changed {
		r.notify()
	}
}

// AddHistory prepends a completed ring-session record, evicting beyond the
// retention cap, and assigns its id.
func (r *Repository) AddHistory(ctx context.Context, entry model.AlarmHistory) model.AlarmHistory {
	r.mu.Lock()
	entry.ID = uuid.NewString()
	r.history = append([]model.AlarmHistory{entry}, r.history...)
	if len(r.history) > model.HistoryLimit {
		r.history = r.history[:model.HistoryLimit]
	}
	r.persistLocked(ctx)
	r.mu.Unlock()
	r.notify()
	return entry
}

func (r *Repository) UpdateSettings(ctx context.Context, patch model.SettingsPatch) {
	r.mu.Lock()
	r.settings = patch.Apply(r.settings)
	r.persistLocked(ctx)
	r.mu.Unlock()
	r.notify()
}

// SetActiveAlarm tracks which alarm currently owns the ring session.
// Not persisted and does not notify observers.
func (r *Repository) SetActiveAlarm(id string) {
	r.mu.Lock()
	r.activeAlarmID = id
	r.mu.Unlock()
}

// ClearActiveAlarm resets the pointer only if it still references id.
func (r *Repository) ClearActiveAlarm(id string) {
	r.mu.Lock()
	if r.activeAlarmID == id {
		r.activeAlarmID = ""
	}
	r.mu.Unlock()
}

func (r *Repository) ActiveAlarm() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeAlarmID
}

func (r *Repository) Alarms() []model.Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Alarm(nil), r.alarms...)
}

func (r *Repository) Alarm(id string) (model.Alarm, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alarms {
		if a.ID == id {
			return a, true
		}
	}
	return model.Alarm{}, false
}

func (r *Repository) History() []model.AlarmHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AlarmHistory(nil), r.history...)
}

func (r *Repository) Settings() model.AlarmSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// persistLocked writes the full snapshot. Failures are logged and the
// in-memory state kept; the next mutation retries the write.
func (r *Repository) persistLocked(ctx context.Context) {
	alarms, err := json.Marshal(r.alarms)
	if err != nil {
		r.logger.Printf("repo: marshal alarms: %v", err)
		return
	}
	history, err := json.Marshal(r.history)
	if err != nil {
		r.logger.Printf("repo: marshal history: %v", err)
		return
	}
	settings, err := json.Marshal(r.settings)
	if err != nil {
		r.logger.Printf("repo: marshal settings: %v", err)
		return
	}
	entries := map[string]string{
		db.KeyAlarms:   string(alarms),
		db.KeyHistory:  string(history),
		db.KeySettings: string(settings),
	}
	if err := r.store.PutSnapshots(ctx, entries); err != nil {
		r.logger.Printf("repo: persist snapshot: %v", err)
	}
}

func (r *Repository) notify() {
	r.mu.Lock()
	observers := append([]func(){}, r.observers...)
	r.mu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// newAlarmID derives a creation-time token with a random suffix so rapid
// consecutive adds stay distinguishable.
func newAlarmID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8]
}
