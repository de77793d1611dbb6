package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/awakeful/alarmd/internal/model"
	"github.com/awakeful/alarmd/internal/occurrence"
)

const (
	reminderLongLead  = time.Hour
	reminderShortLead = 10 * time.Minute

	// occurrenceTolerance bounds how far a main notification's scheduled
	// time may drift from the requested occurrence and still be treated
	// as the same instance.
	occurrenceTolerance = time.Minute
)

// Adapter wraps the external scheduler. Scheduling failures are logged and
// swallowed: the alarm record is never rolled back because a notification
// could not be armed, and the next reconciliation run retries.
type Adapter struct {
	sched  Scheduler
	logger *log.Logger
	now    func() time.Time
}

func NewAdapter(sched Scheduler, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{sched: sched, logger: logger, now: time.Now}
}

// WithClock overrides the adapter's time source.
func (ad *Adapter) WithClock(now func() time.Time) *Adapter {
	ad.now = now
	return ad
}

// ScheduleMain arms the main ring notification at the alarm's next
// occurrence. Returns the scheduled id, or ok=false when the alarm has no
// occurrence or the scheduler rejected the request.
func (ad *Adapter) ScheduleMain(ctx context.Context, a model.Alarm) (string, bool) {
	next, ok := occurrence.Next(a, ad.now())
	if !ok {
		return "", false
	}
	title := a.Label
	if title == "" {
		title = "Alarm"
	}
	id, err := ad.sched.ScheduleAt(ctx, next, model.NotificationPayload{
		AlarmID:  a.ID,
		Type:     model.NotificationAlarm,
		Title:    title,
		Body:     "Time to wake up!",
		Sound:    true,
		Priority: model.PriorityMax,
	})
	if err != nil {
		ad.logger.Printf("schedule: main notification for alarm %s: %v", a.ID, err)
		return "", false
	}
	return id, true
}

// ScheduleReminders arms the low-priority pre-alarm notifications at one
// hour and ten minutes before the next occurrence. Reminders whose target
// time is not strictly in the future are skipped, never backdated. Each
// carries a cancel-this-occurrence action and the occurrence timestamp so
// a single instance can be cancelled without touching future recurrences.
func (ad *Adapter) ScheduleReminders(ctx context.Context, a model.Alarm) {
	next, ok := occurrence.Next(a, ad.now())
	if !ok {
		return
	}
	label := a.Label
	if label == "" {
		label = "Alarm"
	}
	now := ad.now()
	reminders := []struct {
		kind model.ReminderKind
		at   time.Time
		body string
	}{
		{
			kind: model.ReminderOneHour,
			at:   next.Add(-reminderLongLead),
			body: fmt.Sprintf("%s will ring at %s. Tap to cancel this occurrence.", label, occurrence.FormatClock(a.Time)),
		},
		{
			kind: model.ReminderTenMin,
			at:   next.Add(-reminderShortLead),
			body: fmt.Sprintf("%s will ring soon. Tap to cancel this occurrence.", label),
		},
	}
	for _, rem := range reminders {
		if !rem.at.After(now) {
			continue
		}
		alarmTime := next
		_, err := ad.sched.ScheduleAt(ctx, rem.at, model.NotificationPayload{
			AlarmID:      a.ID,
			Type:         model.NotificationReminder,
			ReminderType: rem.kind,
			AlarmTime:    &alarmTime,
			Title:        reminderTitle(rem.kind),
			Body:         rem.body,
			Sound:        false,
			Priority:     model.PriorityLow,
			CancelAction: true,
		})
		if err != nil {
			ad.logger.Printf("schedule: %s reminder for alarm %s: %v", rem.kind, a.ID, err)
		}
	}
}

func reminderTitle(kind model.ReminderKind) string {
	if kind == model.ReminderOneHour {
		return "Alarm in 1 hour"
	}
	return "Alarm in 10 minutes"
}

// ScheduleFollowUp arms the post-dismissal wakefulness check.
func (ad *Adapter) ScheduleFollowUp(ctx context.Context, alarmID string, delayMinutes int) (string, bool) {
	at := ad.now().Add(time.Duration(delayMinutes) * time.Minute)
	id, err := ad.sched.ScheduleAt(ctx, at, model.NotificationPayload{
		AlarmID:  alarmID,
		Type:     model.NotificationFollowUp,
		Title:    "Are you still awake?",
		Body:     "Tap to confirm you're up. You'll need to type a challenge phrase.",
		Sound:    true,
		Priority: model.PriorityHigh,
	})
	if err != nil {
		ad.logger.Printf("schedule: follow-up for alarm %s: %v", alarmID, err)
		return "", false
	}
	return id, true
}

// ScheduleSnooze arms a snoozed re-ring. It is tagged as a main alarm
// notification so firing re-enters the ring flow identically.
func (ad *Adapter) ScheduleSnooze(ctx context.Context, alarmID string, snoozeMinutes int) (string, bool) {
	at := ad.now().Add(time.Duration(snoozeMinutes) * time.Minute)
	id, err := ad.sched.ScheduleAt(ctx, at, model.NotificationPayload{
		AlarmID:  alarmID,
		Type:     model.NotificationAlarm,
		Title:    "Snoozed Alarm",
		Body:     "Time to wake up!",
		Sound:    true,
		Priority: model.PriorityMax,
	})
	if err != nil {
		ad.logger.Printf("schedule: snooze for alarm %s: %v", alarmID, err)
		return "", false
	}
	return id, true
}

// CancelAll cancels every outstanding notification tagged with the alarm
// id, regardless of type. Cancelling an unknown id is a no-op, so the call
// is idempotent.
func (ad *Adapter) CancelAll(ctx context.Context, alarmID string) {
	scheduled, err := ad.sched.ListScheduled(ctx)
	if err != nil {
		ad.logger.Printf("schedule: list for cancel of alarm %s: %v", alarmID, err)
		return
	}
	for _, n := range scheduled {
		if n.Payload.AlarmID != alarmID {
			continue
		}
		if err := ad.sched.Cancel(ctx, n.ID); err != nil {
			ad.logger.Printf("schedule: cancel %s for alarm %s: %v", n.ID, alarmID, err)
		}
	}
}

// CancelOccurrence cancels one instance of a recurring alarm: the main
// notification scheduled within the tolerance window of the occurrence,
// plus reminders whose alarm-time metadata equals it exactly. Future
// recurrences are untouched.
func (ad *Adapter) CancelOccurrence(ctx context.Context, alarmID string, occurrenceAt time.Time) {
	scheduled, err := ad.sched.ListScheduled(ctx)
	if err != nil {
		ad.logger.Printf("schedule: list for occurrence cancel of alarm %s: %v", alarmID, err)
		return
	}
	for _, n := range scheduled {
		if n.Payload.AlarmID != alarmID {
			continue
		}
		switch n.Payload.Type {
		case model.NotificationAlarm:
			drift := n.Time.Sub(occurrenceAt)
			if drift < 0 {
				drift = -drift
			}
			if drift >= occurrenceTolerance {
				continue
			}
		case model.NotificationReminder:
			if n.Payload.AlarmTime == nil || !n.Payload.AlarmTime.Equal(occurrenceAt) {
				continue
			}
		default:
			continue
		}
		if err := ad.sched.Cancel(ctx, n.ID); err != nil {
			ad.logger.Printf("schedule: cancel occurrence %s for alarm %s: %v", n.ID, alarmID, err)
		}
	}
}
