package schedule_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/awakeful/alarmd/internal/model"
	"github.com/awakeful/alarmd/internal/schedule"
	"github.com/awakeful/alarmd/internal/testutil"
)

// 2026-01-05 is a Monday.
var monday6 = time.Date(2026, time.January, 5, 6, 0, 0, 0, time.UTC)

func newAdapter(t *testing.T) (*schedule.Adapter, *testutil.FakeScheduler) {
	t.Helper()
	fake := testutil.NewFakeScheduler()
	ad := schedule.NewAdapter(fake, log.New(io.Discard, "", 0)).WithClock(func() time.Time { return monday6 })
	return ad, fake
}

func alarm(id, clock string, days []int) model.Alarm {
	return model.Alarm{ID: id, Time: clock, Enabled: true, RepeatDays: days, Label: "wake"}
}

func TestScheduleMainArmsNextOccurrence(t *testing.T) {
	ad, fake := newAdapter(t)
	ctx := context.Background()

	id, ok := ad.ScheduleMain(ctx, alarm("a1", "07:00", nil))
	if !ok || id == "" {
		t.Fatalf("expected scheduled id")
	}
	entries := fake.ForAlarm("a1")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	n := entries[0]
	if n.Payload.Type != model.NotificationAlarm {
		t.Fatalf("expected alarm type, got %s", n.Payload.Type)
	}
	if n.Payload.Priority != model.PriorityMax || !n.Payload.Sound {
		t.Fatalf("main notification must be max priority with sound: %+v", n.Payload)
	}
	want := time.Date(2026, time.January, 5, 7, 0, 0, 0, time.UTC)
	if !n.Time.Equal(want) {
		t.Fatalf("scheduled at %v, want %v", n.Time, want)
	}
}

func TestScheduleMainDisabledAlarmIsNoOp(t *testing.T) {
	ad, fake := newAdapter(t)
	a := alarm("a1", "07:00", nil)
	a.Enabled = false
	if _, ok := ad.ScheduleMain(context.Background(), a); ok {
		t.Fatalf("disabled alarm must not schedule")
	}
	if got := len(fake.ForAlarm("a1")); got != 0 {
		t.Fatalf("expected no entries, got %d", got)
	}
}

func TestScheduleMainSchedulerErrorIsSwallowed(t *testing.T) {
	ad, fake := newAdapter(t)
	fake.FailNext = true
	if _, ok := ad.ScheduleMain(context.Background(), alarm("a1", "07:00", nil)); ok {
		t.Fatalf("expected ok=false on scheduler error")
	}
}

func TestScheduleRemindersBothLeads(t *testing.T) {
	ad, fake := newAdapter(t)
	// Occurrence Mon 08:00: both 07:00 and 07:50 are in the future at 06:00.
	ad.ScheduleReminders(context.Background(), alarm("a1", "08:00", nil))

	entries := fake.ForAlarm("a1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(entries))
	}
	occurrenceAt := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	for _, n := range entries {
		if n.Payload.Type != model.NotificationReminder {
			t.Fatalf("expected reminder type, got %s", n.Payload.Type)
		}
		if n.Payload.Priority != model.PriorityLow || n.Payload.Sound {
			t.Fatalf("reminders must be low priority and silent: %+v", n.Payload)
		}
		if !n.Payload.CancelAction {
			t.Fatalf("reminder must carry cancel-occurrence action")
		}
		if n.Payload.AlarmTime == nil || !n.Payload.AlarmTime.Equal(occurrenceAt) {
			t.Fatalf("reminder alarm-time metadata wrong: %+v", n.Payload.AlarmTime)
		}
	}
	if !entries[0].Time.Equal(occurrenceAt.Add(-time.Hour)) {
		t.Fatalf("1 hour reminder at %v", entries[0].Time)
	}
	if !entries[1].Time.Equal(occurrenceAt.Add(-10 * time.Minute)) {
		t.Fatalf("10 minute reminder at %v", entries[1].Time)
	}
}

func TestScheduleRemindersSkipsPastLead(t *testing.T) {
	ad, fake := newAdapter(t)
	// Occurrence Mon 06:30: the 1-hour lead (05:30) is already past,
	// only the 10-minute reminder (06:20) may be armed.
	ad.ScheduleReminders(context.Background(), alarm("a1", "06:30", nil))

	entries := fake.ForAlarm("a1")
	if len(entries) != 1 {
		t.Fatalf("expected only the 10min reminder, got %d entries", len(entries))
	}
	if entries[0].Payload.ReminderType != model.ReminderTenMin {
		t.Fatalf("expected 10min reminder, got %s", entries[0].Payload.ReminderType)
	}
}

func TestScheduleRemindersAllPastIsNoOp(t *testing.T) {
	ad, fake := newAdapter(t)
	// Occurrence Mon 06:05: both leads are in the past. No backdated
	// schedule attempts.
	ad.ScheduleReminders(context.Background(), alarm("a1", "06:05", nil))
	if got := len(fake.ForAlarm("a1")); got != 0 {
		t.Fatalf("expected no reminders, got %d", got)
	}
}

func TestScheduleFollowUpAndSnoozeTimes(t *testing.T) {
	ad, fake := newAdapter(t)
	ctx := context.Background()

	if _, ok := ad.ScheduleFollowUp(ctx, "a1", 5); !ok {
		t.Fatalf("follow-up not scheduled")
	}
	if _, ok := ad.ScheduleSnooze(ctx, "a1", 9); !ok {
		t.Fatalf("snooze not scheduled")
	}
	entries := fake.ForAlarm("a1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Time.Equal(monday6.Add(5 * time.Minute)) {
		t.Fatalf("follow-up at %v", entries[0].Time)
	}
	if entries[0].Payload.Type != model.NotificationFollowUp || entries[0].Payload.Priority != model.PriorityHigh {
		t.Fatalf("follow-up payload wrong: %+v", entries[0].Payload)
	}
	if !entries[1].Time.Equal(monday6.Add(9 * time.Minute)) {
		t.Fatalf("snooze at %v", entries[1].Time)
	}
	// Snooze re-enters the ring flow as a main alarm firing.
	if entries[1].Payload.Type != model.NotificationAlarm || entries[1].Payload.Priority != model.PriorityMax {
		t.Fatalf("snooze payload wrong: %+v", entries[1].Payload)
	}
}

func TestCancelAllRemovesEveryType(t *testing.T) {
	ad, fake := newAdapter(t)
	ctx := context.Background()

	ad.ScheduleMain(ctx, alarm("a1", "08:00", nil))
	ad.ScheduleReminders(ctx, alarm("a1", "08:00", nil))
	ad.ScheduleFollowUp(ctx, "a1", 5)
	ad.ScheduleMain(ctx, alarm("a2", "09:00", nil))

	ad.CancelAll(ctx, "a1")
	if got := len(fake.ForAlarm("a1")); got != 0 {
		t.Fatalf("expected all a1 entries cancelled, %d remain", got)
	}
	if got := len(fake.ForAlarm("a2")); got != 1 {
		t.Fatalf("other alarm's entries must survive, got %d", got)
	}

	// Cancelling again is a no-op.
	ad.CancelAll(ctx, "a1")
}

func TestCancelOccurrenceLeavesOtherOccurrences(t *testing.T) {
	fake := testutil.NewFakeScheduler()
	ad := schedule.NewAdapter(fake, log.New(io.Discard, "", 0))
	ctx := context.Background()

	occurrenceAt := time.Date(2026, time.January, 7, 7, 0, 0, 0, time.UTC)
	nextWeek := occurrenceAt.AddDate(0, 0, 7)

	// Main notification for this week's occurrence, a reminder tied to it,
	// and a main notification for next week's occurrence.
	mainID, _ := fake.ScheduleAt(ctx, occurrenceAt, model.NotificationPayload{AlarmID: "a1", Type: model.NotificationAlarm})
	remID, _ := fake.ScheduleAt(ctx, occurrenceAt.Add(-10*time.Minute), model.NotificationPayload{
		AlarmID: "a1", Type: model.NotificationReminder, AlarmTime: &occurrenceAt,
	})
	futureID, _ := fake.ScheduleAt(ctx, nextWeek, model.NotificationPayload{AlarmID: "a1", Type: model.NotificationAlarm})
	staleRemID, _ := fake.ScheduleAt(ctx, nextWeek.Add(-time.Hour), model.NotificationPayload{
		AlarmID: "a1", Type: model.NotificationReminder, AlarmTime: &nextWeek,
	})

	ad.CancelOccurrence(ctx, "a1", occurrenceAt)

	remaining := fake.ForAlarm("a1")
	ids := make(map[string]bool, len(remaining))
	for _, n := range remaining {
		ids[n.ID] = true
	}
	if ids[mainID] || ids[remID] {
		t.Fatalf("this occurrence's notifications must be cancelled, remaining %v", ids)
	}
	if !ids[futureID] || !ids[staleRemID] {
		t.Fatalf("future occurrence's notifications must survive, remaining %v", ids)
	}
}

func TestCancelOccurrenceToleranceWindow(t *testing.T) {
	fake := testutil.NewFakeScheduler()
	ad := schedule.NewAdapter(fake, log.New(io.Discard, "", 0))
	ctx := context.Background()

	occurrenceAt := time.Date(2026, time.January, 7, 7, 0, 0, 0, time.UTC)
	nearID, _ := fake.ScheduleAt(ctx, occurrenceAt.Add(30*time.Second), model.NotificationPayload{AlarmID: "a1", Type: model.NotificationAlarm})
	farID, _ := fake.ScheduleAt(ctx, occurrenceAt.Add(90*time.Second), model.NotificationPayload{AlarmID: "a1", Type: model.NotificationAlarm})

	ad.CancelOccurrence(ctx, "a1", occurrenceAt)

	remaining := fake.ForAlarm("a1")
	if len(remaining) != 1 || remaining[0].ID != farID {
		t.Fatalf("expected only %s outside the window to survive, got %+v (near was %s)", farID, remaining, nearID)
	}
}
