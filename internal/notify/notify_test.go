package notify

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"

	"github.com/awakeful/alarmd/internal/model"
)

func TestLogSinkWritesTypeAlarmAndTitle(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: log.New(&buf, "", 0)}

	n := model.ScheduledNotification{
		ID: "n1",
		Payload: model.NotificationPayload{
			AlarmID: "alarm-1",
			Type:    model.NotificationReminder,
			Title:   "Alarm in 10 minutes",
			Body:    "Wake Up at 07:30",
		},
	}
	if err := sink.Deliver(context.Background(), n); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"reminder", "alarm-1", "Alarm in 10 minutes", "Wake Up at 07:30"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %q: %q", want, out)
		}
	}
}

func TestUrgencyMapping(t *testing.T) {
	cases := []struct {
		priority model.Priority
		want     byte
	}{
		{model.PriorityLow, 0},
		{model.PriorityHigh, 1},
		{model.PriorityMax, 2},
		{model.Priority("unknown"), 1},
	}
	for _, tc := range cases {
		if got := urgency(tc.priority); got != tc.want {
			t.Fatalf("urgency(%q) = %d, want %d", tc.priority, got, tc.want)
		}
	}
}

func TestIconByNotificationType(t *testing.T) {
	if got := icon(model.NotificationAlarm); got != "alarm-symbolic" {
		t.Fatalf("alarm icon = %q", got)
	}
	if got := icon(model.NotificationReminder); got != "appointment-soon" {
		t.Fatalf("reminder icon = %q", got)
	}
}
