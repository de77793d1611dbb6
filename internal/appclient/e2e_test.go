package appclient_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/awakeful/alarmd/internal/appclient"
	"github.com/awakeful/alarmd/internal/config"
	"github.com/awakeful/alarmd/internal/daemon"
	"github.com/awakeful/alarmd/internal/model"
	"github.com/awakeful/alarmd/internal/testutil"
)

func startDaemon(t *testing.T) *appclient.Client {
	t.Helper()
	tmp := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.SocketPath = filepath.Join(tmp, "alarmd.sock")
	cfg.DBPath = filepath.Join(tmp, "alarmd.db")

	store, _ := testutil.NewStore(t)
	srv := daemon.NewServer(cfg, store, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()
	waitForSocket(t, cfg.SocketPath, errCh)

	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(3 * time.Second):
			t.Errorf("timeout waiting for daemon shutdown")
		}
	})
	return appclient.New(cfg.SocketPath)
}

func TestClientAlarmRoundTripOverSocket(t *testing.T) {
	client := startDaemon(t)
	ctx := context.Background()

	health, err := client.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("health status %q", health.Status)
	}

	created, err := client.CreateAlarm(ctx, model.Alarm{
		Time:       "06:45",
		Enabled:    true,
		Label:      "Run",
		RepeatDays: []int{0, 6},
	})
	if err != nil {
		t.Fatalf("create alarm: %v", err)
	}
	id := created.Alarm.Alarm.ID
	if id == "" {
		t.Fatalf("created alarm has no id")
	}

	list, err := client.ListAlarms(ctx)
	if err != nil {
		t.Fatalf("list alarms: %v", err)
	}
	if len(list.Alarms) != 1 || list.Alarms[0].RepeatDisplay != "Weekends" {
		t.Fatalf("unexpected alarm list: %+v", list.Alarms)
	}

	label := "Morning run"
	patched, err := client.PatchAlarm(ctx, id, model.AlarmPatch{Label: &label})
	if err != nil {
		t.Fatalf("patch alarm: %v", err)
	}
	if patched.Alarm.Alarm.Label != label {
		t.Fatalf("patch not applied: %q", patched.Alarm.Alarm.Label)
	}

	toggled, err := client.ToggleAlarm(ctx, id)
	if err != nil {
		t.Fatalf("toggle alarm: %v", err)
	}
	if toggled.Alarm.Alarm.Enabled {
		t.Fatalf("toggle did not disable the alarm")
	}

	if err := client.DeleteAlarm(ctx, id); err != nil {
		t.Fatalf("delete alarm: %v", err)
	}
	_, err = client.GetAlarm(ctx, id)
	var reqErr *appclient.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %v", err)
	}
	if reqErr.Code != model.ErrRefNotFound {
		t.Fatalf("error code %q", reqErr.Code)
	}
}

func TestClientRingActionConflictOverSocket(t *testing.T) {
	client := startDaemon(t)
	ctx := context.Background()

	state, err := client.RingState(ctx)
	if err != nil {
		t.Fatalf("ring state: %v", err)
	}
	if state.Ringing {
		t.Fatalf("fresh daemon reports ringing")
	}

	_, err = client.Dismiss(ctx)
	var reqErr *appclient.RequestError
	if !errors.As(err, &reqErr) || reqErr.Code != model.ErrConflict {
		t.Fatalf("expected conflict dismissing silence, got %v", err)
	}
}

func waitForSocket(t *testing.T, path string, errCh <-chan error) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-errCh:
			if isUDSUnsupported(err) {
				t.Skipf("unix domain sockets unavailable in this environment: %v", err)
			}
			t.Fatalf("daemon exited before socket creation: %v", err)
		default:
		}
		if st, err := os.Stat(path); err == nil {
			if st.Mode()&os.ModeSocket != 0 {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("socket was not created: %s", path)
}

func isUDSUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "not supported") ||
		strings.Contains(msg, "address family not supported")
}
