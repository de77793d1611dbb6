package reconcile_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/awakeful/alarmd/internal/entitlement"
	"github.com/awakeful/alarmd/internal/model"
	"github.com/awakeful/alarmd/internal/reconcile"
	"github.com/awakeful/alarmd/internal/schedule"
	"github.com/awakeful/alarmd/internal/testutil"
)

// 2026-01-05 is a Monday.
var monday6 = time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC)

type staticAlarms []model.Alarm

func (s staticAlarms) Alarms() []model.Alarm {
	return append([]model.Alarm(nil), s...)
}

func quiet() *log.Logger { return log.New(io.Discard, "", 0) }

func newHarness(alarms []model.Alarm, premium bool) (*reconcile.Reconciler, *testutil.FakeScheduler) {
	fake := testutil.NewFakeScheduler()
	adapter := schedule.NewAdapter(fake, quiet()).WithClock(func() time.Time { return monday6 })
	r := reconcile.NewReconciler(staticAlarms(alarms), adapter, entitlement.Static(premium), quiet())
	return r, fake
}

func alarm(id string, enabled, reminders bool) model.Alarm {
	return model.Alarm{ID: id, Time: "08:00", Enabled: enabled, ReminderEnabled: reminders}
}

func signature(fake *testutil.FakeScheduler, alarmID string) []string {
	var out []string
	for _, n := range fake.ForAlarm(alarmID) {
		out = append(out, fmt.Sprintf("%s/%s@%s", n.Payload.Type, n.Payload.ReminderType, n.Time.Format(time.RFC3339)))
	}
	return out
}

func TestRunSchedulesEnabledAlarms(t *testing.T) {
	r, fake := newHarness([]model.Alarm{alarm("a1", true, false), alarm("a2", false, false)}, false)
	r.Run(context.Background())

	if got := len(fake.ForAlarm("a1")); got != 1 {
		t.Fatalf("enabled alarm: %d notifications, want 1 main", got)
	}
	if got := len(fake.ForAlarm("a2")); got != 0 {
		t.Fatalf("disabled alarm: %d notifications, want 0", got)
	}
}

func TestRunPremiumGatesReminders(t *testing.T) {
	alarms := []model.Alarm{alarm("a1", true, true)}

	r, fake := newHarness(alarms, false)
	r.Run(context.Background())
	if got := len(fake.ForAlarm("a1")); got != 1 {
		t.Fatalf("free tier must not get reminders, got %d notifications", got)
	}

	r, fake = newHarness(alarms, true)
	r.Run(context.Background())
	// Main + 1hour + 10min.
	if got := len(fake.ForAlarm("a1")); got != 3 {
		t.Fatalf("premium with reminders enabled: got %d notifications, want 3", got)
	}
}

func TestRunReminderFlagGates(t *testing.T) {
	r, fake := newHarness([]model.Alarm{alarm("a1", true, false)}, true)
	r.Run(context.Background())
	if got := len(fake.ForAlarm("a1")); got != 1 {
		t.Fatalf("reminders disabled on alarm: got %d notifications, want 1", got)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	r, fake := newHarness([]model.Alarm{alarm("a1", true, true), alarm("a2", true, false)}, true)
	ctx := context.Background()

	r.Run(ctx)
	first1 := signature(fake, "a1")
	first2 := signature(fake, "a2")

	r.Run(ctx)
	second1 := signature(fake, "a1")
	second2 := signature(fake, "a2")

	if fmt.Sprint(first1) != fmt.Sprint(second1) || fmt.Sprint(first2) != fmt.Sprint(second2) {
		t.Fatalf("second run changed the scheduled set:\n%v\n%v", first1, second1)
	}
	if len(second1) != 3 || len(second2) != 1 {
		t.Fatalf("duplicates after rerun: a1=%d a2=%d", len(second1), len(second2))
	}
}

func TestRunClearsStaleNotificationsOnDisable(t *testing.T) {
	fake := testutil.NewFakeScheduler()
	adapter := schedule.NewAdapter(fake, quiet()).WithClock(func() time.Time { return monday6 })
	ctx := context.Background()

	enabled := []model.Alarm{alarm("a1", true, true)}
	reconcile.NewReconciler(staticAlarms(enabled), adapter, entitlement.Static(true), quiet()).Run(ctx)
	if got := len(fake.ForAlarm("a1")); got != 3 {
		t.Fatalf("precondition: want 3 scheduled, got %d", got)
	}

	disabled := []model.Alarm{alarm("a1", false, true)}
	reconcile.NewReconciler(staticAlarms(disabled), adapter, entitlement.Static(true), quiet()).Run(ctx)
	if got := len(fake.ForAlarm("a1")); got != 0 {
		t.Fatalf("toggling off must cancel main and reminders, %d remain", got)
	}
}

func TestRunEntitlementErrorDegradesToFree(t *testing.T) {
	fake := testutil.NewFakeScheduler()
	adapter := schedule.NewAdapter(fake, quiet()).WithClock(func() time.Time { return monday6 })
	failing := entitlement.Func(func(context.Context) (bool, error) {
		return true, fmt.Errorf("billing unreachable")
	})
	r := reconcile.NewReconciler(staticAlarms([]model.Alarm{alarm("a1", true, true)}), adapter, failing, quiet())
	r.Run(context.Background())

	if got := len(fake.ForAlarm("a1")); got != 1 {
		t.Fatalf("entitlement error must degrade to main-only, got %d", got)
	}
}
