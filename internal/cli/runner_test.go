package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/awakeful/alarmd/internal/api"
	"github.com/awakeful/alarmd/internal/model"
)

func newTestRunner(t *testing.T, mux *http.ServeMux) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRunnerWithClient(srv.URL, srv.Client(), out, errOut), out, errOut
}

func TestListPrintsAlarmTable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/alarms", func(w http.ResponseWriter, r *http.Request) {
		next := "2026-01-05T07:00:00+09:00"
		env := api.AlarmsEnvelope{
			SchemaVersion: "v1",
			GeneratedAt:   time.Now().UTC(),
			Alarms: []api.AlarmResponse{{
				Alarm:          model.Alarm{ID: "a1", Time: "07:00", Enabled: true, Label: "Workday"},
				TimeDisplay:    "7:00 AM",
				RepeatDisplay:  "Weekdays",
				NextOccurrence: &next,
			}},
		}
		_ = json.NewEncoder(w).Encode(env)
	})
	runner, out, _ := newTestRunner(t, mux)

	if code := runner.Run(context.Background(), []string{"list"}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	line := out.String()
	for _, want := range []string{"a1", "7:00 AM", "Weekdays", "Workday", "on"} {
		if !strings.Contains(line, want) {
			t.Fatalf("output missing %q: %q", want, line)
		}
	}
}

func TestAddPostsAlarm(t *testing.T) {
	var got api.CreateAlarmRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/alarms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		got.Alarm.ID = "a9"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(api.AlarmEnvelope{
			SchemaVersion: "v1",
			Alarm:         api.AlarmResponse{Alarm: got.Alarm, TimeDisplay: "6:30 AM", RepeatDisplay: "Weekdays"},
		})
	})
	runner, out, _ := newTestRunner(t, mux)

	code := runner.Run(context.Background(), []string{
		"add", "06:30", "--label", "Work", "--days", "1,2,3,4,5", "--mission", "math",
	})
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got.Alarm.Time != "06:30" || got.Alarm.Label != "Work" {
		t.Fatalf("unexpected request: %+v", got.Alarm)
	}
	if len(got.Alarm.RepeatDays) != 5 || got.Alarm.RepeatDays[0] != 1 {
		t.Fatalf("repeat days %v", got.Alarm.RepeatDays)
	}
	if got.Alarm.MissionType != model.MissionMath {
		t.Fatalf("mission type %q", got.Alarm.MissionType)
	}
	if !got.Alarm.Enabled {
		t.Fatalf("alarms are created enabled by default")
	}
	if !strings.Contains(out.String(), "added alarm a9") {
		t.Fatalf("output %q", out.String())
	}
}

func TestAddRejectsBadDays(t *testing.T) {
	runner, _, errOut := newTestRunner(t, http.NewServeMux())
	if code := runner.Run(context.Background(), []string{"add", "06:30", "--days", "1,7"}); code != 2 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(errOut.String(), "invalid repeat day") {
		t.Fatalf("stderr %q", errOut.String())
	}
}

func TestSetSendsSparsePatch(t *testing.T) {
	var got api.PatchAlarmRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/alarms/a1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("expected PATCH, got %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(api.AlarmEnvelope{SchemaVersion: "v1"})
	})
	runner, _, _ := newTestRunner(t, mux)

	if code := runner.Run(context.Background(), []string{"set", "a1", "--label", "New name"}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got.Patch.Label == nil || *got.Patch.Label != "New name" {
		t.Fatalf("label patch missing: %+v", got.Patch)
	}
	if got.Patch.Time != nil || got.Patch.Enabled != nil || got.Patch.MissionType != nil {
		t.Fatalf("unset flags leaked into the patch: %+v", got.Patch)
	}
}

func TestSkipPostsAndPrintsOccurrence(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/alarms/a1/skip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		_ = json.NewEncoder(w).Encode(api.SkipEnvelope{
			SchemaVersion: "v1",
			AlarmID:       "a1",
			Skipped:       time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC),
		})
	})
	runner, out, _ := newTestRunner(t, mux)

	if code := runner.Run(context.Background(), []string{"skip", "a1"}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), "2026-01-05T07:00:00Z") {
		t.Fatalf("output missing skipped occurrence: %q", out.String())
	}
}

func TestErrorEnvelopeReachesStderr(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/alarms/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{
			SchemaVersion: "v1",
			Error:         api.APIError{Code: model.ErrRefNotFound, Message: "alarm not found"},
		})
	})
	runner, _, errOut := newTestRunner(t, mux)

	if code := runner.Run(context.Background(), []string{"show", "missing"}); code != 1 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(errOut.String(), model.ErrRefNotFound) {
		t.Fatalf("stderr %q", errOut.String())
	}
}

func TestRingStateSilent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ring", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(api.RingStateResponse{SchemaVersion: "v1"})
	})
	runner, out, _ := newTestRunner(t, mux)

	if code := runner.Run(context.Background(), []string{"ring"}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if strings.TrimSpace(out.String()) != "silent" {
		t.Fatalf("output %q", out.String())
	}
}

func TestSoundsListsCatalogue(t *testing.T) {
	runner, out, _ := newTestRunner(t, http.NewServeMux())
	if code := runner.Run(context.Background(), []string{"sounds"}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), model.DefaultSound) {
		t.Fatalf("catalogue output missing default sound: %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	runner, _, errOut := newTestRunner(t, http.NewServeMux())
	if code := runner.Run(context.Background(), []string{"explode"}); code != 2 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Fatalf("stderr %q", errOut.String())
	}
}
