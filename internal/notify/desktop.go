package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"

	"github.com/awakeful/alarmd/internal/model"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	appName       = "alarmd"
	expireTimeout = int32(10000) // ms
)

// DesktopSink posts notifications on the session bus via
// org.freedesktop.Notifications.
type DesktopSink struct {
	conn   *dbus.Conn
	logger *log.Logger
}

// NewDesktopSink connects to the session bus. Callers should fall back
// to a LogSink when this fails (headless hosts, no session bus).
func NewDesktopSink(logger *log.Logger) (*DesktopSink, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DesktopSink{conn: conn, logger: logger}, nil
}

func (s *DesktopSink) Close() error {
	return s.conn.Close()
}

func (s *DesktopSink) Deliver(ctx context.Context, n model.ScheduledNotification) error {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgency(n.Payload.Priority)),
	}
	if !n.Payload.Sound {
		hints["suppress-sound"] = dbus.MakeVariant(true)
	}
	obj := s.conn.Object(notifyDest, notifyPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		appName,
		uint32(0), // replaces_id
		icon(n.Payload.Type),
		n.Payload.Title,
		n.Payload.Body,
		[]string{}, // actions
		hints,
		expireTimeout,
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}
	return nil
}

// urgency maps notification priority onto the freedesktop urgency byte:
// 0 low, 1 normal, 2 critical.
func urgency(p model.Priority) byte {
	switch p {
	case model.PriorityLow:
		return 0
	case model.PriorityMax:
		return 2
	default:
		return 1
	}
}

func icon(t model.NotificationType) string {
	switch t {
	case model.NotificationAlarm:
		return "alarm-symbolic"
	default:
		return "appointment-soon"
	}
}
