// Package notify delivers fired notifications to the user. The daemon
// hands every non-ringing notification (reminders, follow-ups) to a
// Sink; ringing alarms are handled by the ring session instead.
package notify

import (
	"context"
	"log"

	"github.com/awakeful/alarmd/internal/model"
)

// Sink delivers a single fired notification.
type Sink interface {
	Deliver(ctx context.Context, n model.ScheduledNotification) error
}

// LogSink writes notifications to the daemon log. It is the fallback
// when no desktop bus is reachable, and the default in tests.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Deliver(_ context.Context, n model.ScheduledNotification) error {
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("notify: [%s] alarm=%s %s: %s", n.Payload.Type, n.Payload.AlarmID, n.Payload.Title, n.Payload.Body)
	return nil
}
