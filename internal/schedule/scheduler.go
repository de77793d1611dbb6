// Package schedule maps alarms to scheduled notifications and keeps the
// two consistent. The Scheduler interface is the minimum contract required
// of the platform notification service: schedule at a time, cancel by id,
// and enumerate outstanding entries with their metadata.
package schedule

import (
	"context"
	"time"

	"github.com/awakeful/alarmd/internal/model"
)

type Scheduler interface {
	ScheduleAt(ctx context.Context, at time.Time, payload model.NotificationPayload) (string, error)
	Cancel(ctx context.Context, id string) error
	ListScheduled(ctx context.Context) ([]model.ScheduledNotification, error)
}
