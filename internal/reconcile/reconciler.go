// Package reconcile keeps the external scheduler's outstanding
// notifications in sync with the alarm list. The strategy is
// cancel-everything-then-reschedule per alarm rather than diffing:
// scheduling is cheap and idempotent, and each alarm's notifications are
// namespaced by its id, so re-running the loop at any time is safe. The
// cost is that an in-flight reminder countdown is reset on unrelated alarm
// edits, which recomputes to the identical occurrence unless timing fields
// changed. That trade is intentional.
package reconcile

import (
	"context"
	"log"

	"github.com/awakeful/alarmd/internal/entitlement"
	"github.com/awakeful/alarmd/internal/model"
	"github.com/awakeful/alarmd/internal/schedule"
)

type AlarmLister interface {
	Alarms() []model.Alarm
}

type Reconciler struct {
	alarms  AlarmLister
	adapter *schedule.Adapter
	ent     entitlement.Checker
	logger  *log.Logger
}

func NewReconciler(alarms AlarmLister, adapter *schedule.Adapter, ent entitlement.Checker, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{alarms: alarms, adapter: adapter, ent: ent, logger: logger}
}

// Run reconciles every alarm once, order-independent. Entitlement lookup
// failures degrade to the free tier; scheduling failures are logged inside
// the adapter and retried by the next run.
func (r *Reconciler) Run(ctx context.Context) {
	premium := false
	if r.ent != nil {
		var err error
		premium, err = r.ent.IsPremium(ctx)
		if err != nil {
			r.logger.Printf("reconcile: entitlement check failed, assuming free tier: %v", err)
			premium = false
		}
	}

	for _, alarm := range r.alarms.Alarms() {
		r.adapter.CancelAll(ctx, alarm.ID)
		if !alarm.Enabled {
			continue
		}
		r.adapter.ScheduleMain(ctx, alarm)
		if premium && alarm.ReminderEnabled {
			r.adapter.ScheduleReminders(ctx, alarm)
		}
	}
}
