// Package cli implements the alarmctl command surface over the daemon
// socket.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/awakeful/alarmd/internal/api"
	"github.com/awakeful/alarmd/internal/config"
	"github.com/awakeful/alarmd/internal/model"
)

type Runner struct {
	baseURL string
	client  *http.Client
	out     io.Writer
	errOut  io.Writer
}

func NewRunner(socketPath string, out, errOut io.Writer) *Runner {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   config.DefaultConfig().ClientTimeout,
	}
	return NewRunnerWithClient("http://unix", client, out, errOut)
}

func NewRunnerWithClient(baseURL string, client *http.Client, out, errOut io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Runner{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		out:     out,
		errOut:  errOut,
	}
}

func (r *Runner) Run(ctx context.Context, args []string) int {
	socketPath, rest, err := parseGlobalArgs(args)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if socketPath != "" && r.baseURL == "http://unix" {
		*r = *NewRunner(socketPath, r.out, r.errOut)
	}
	if len(rest) == 0 {
		r.printUsage()
		return 2
	}
	switch rest[0] {
	case "list":
		return r.runList(ctx, rest[1:])
	case "add":
		return r.runAdd(ctx, rest[1:])
	case "show":
		return r.runShow(ctx, rest[1:])
	case "set":
		return r.runSet(ctx, rest[1:])
	case "toggle":
		return r.runToggle(ctx, rest[1:])
	case "skip":
		return r.runSkip(ctx, rest[1:])
	case "rm":
		return r.runRemove(ctx, rest[1:])
	case "history":
		return r.runHistory(ctx, rest[1:])
	case "settings":
		return r.runSettings(ctx, rest[1:])
	case "scheduled":
		return r.runScheduled(ctx, rest[1:])
	case "ring":
		return r.runRing(ctx, rest[1:])
	case "sounds":
		return r.runSounds(rest[1:])
	default:
		_, _ = fmt.Fprintf(r.errOut, "unknown command: %s\n", rest[0])
		r.printUsage()
		return 2
	}
}

func parseGlobalArgs(args []string) (string, []string, error) {
	socket := config.DefaultConfig().SocketPath
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--socket" {
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--socket requires value")
			}
			socket = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	return socket, rest, nil
}

func (r *Runner) runList(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	body, err := r.request(ctx, http.MethodGet, "/v1/alarms", nil)
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	var env api.AlarmsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	for _, item := range env.Alarms {
		a := item.Alarm
		state := "off"
		if a.Enabled {
			state = "on"
		}
		next := "-"
		if item.NextOccurrence != nil {
			next = *item.NextOccurrence
		}
		label := a.Label
		if label == "" {
			label = "-"
		}
		_, _ = fmt.Fprintf(r.out, "%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, item.TimeDisplay, item.RepeatDisplay, label, state, next)
	}
	return 0
}

// alarmFlags binds the shared alarm field flags for add and set. Every
// flag records whether it was set so set builds a sparse patch.
type alarmFlags struct {
	label          *string
	days           *string
	mission        *string
	difficulty     *string
	sound          *string
	volume         *float64
	snooze         *bool
	snoozeDuration *int
	vibrate        *bool
	gradual        *bool
	reminder       *bool
	followUp       *bool
	followUpDelay  *int
}

func bindAlarmFlags(fs *flag.FlagSet) *alarmFlags {
	return &alarmFlags{
		label:          fs.String("label", "", "alarm label"),
		days:           fs.String("days", "", "repeat days, comma-separated 0-6 (0=Sunday)"),
		mission:        fs.String("mission", "", "mission type"),
		difficulty:     fs.String("difficulty", "", "mission difficulty (easy|medium|hard)"),
		sound:          fs.String("sound", "", "alarm sound"),
		volume:         fs.Float64("volume", 0, "volume 0.0-1.0"),
		snooze:         fs.Bool("snooze", true, "allow snoozing"),
		snoozeDuration: fs.Int("snooze-duration", 0, "snooze minutes"),
		vibrate:        fs.Bool("vibrate", false, "vibrate"),
		gradual:        fs.Bool("gradual-volume", false, "ramp volume up gradually"),
		reminder:       fs.Bool("reminder", false, "schedule upcoming-alarm reminders"),
		followUp:       fs.Bool("followup", false, "schedule a follow-up check"),
		followUpDelay:  fs.Int("followup-delay", 0, "follow-up delay minutes"),
	}
}

func parseDays(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid repeat day %q", p)
		}
		days = append(days, d)
	}
	return days, nil
}

func (r *Runner) runAdd(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := bindAlarmFlags(fs)
	disabled := fs.Bool("disabled", false, "create the alarm switched off")
	jsonOut := fs.Bool("json", false, "output JSON")

	rest := args
	clock := ""
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		clock = rest[0]
		rest = rest[1:]
	}
	if err := fs.Parse(rest); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if clock == "" && fs.NArg() > 0 {
		clock = fs.Arg(0)
	}
	if clock == "" {
		_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl add <HH:MM> [flags]")
		return 2
	}
	days, err := parseDays(*flags.days)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	alarm := model.Alarm{
		Time:              clock,
		Enabled:           !*disabled,
		Label:             *flags.label,
		RepeatDays:        days,
		MissionType:       model.MissionType(*flags.mission),
		MissionDifficulty: model.Difficulty(*flags.difficulty),
		Sound:             *flags.sound,
		Vibrate:           *flags.vibrate,
		SnoozeEnabled:     *flags.snooze,
		SnoozeDuration:    *flags.snoozeDuration,
		Volume:            *flags.volume,
		GradualVolume:     *flags.gradual,
		ReminderEnabled:   *flags.reminder,
		FollowUpEnabled:   *flags.followUp,
		FollowUpDelay:     *flags.followUpDelay,
	}
	body, err := r.request(ctx, http.MethodPost, "/v1/alarms", api.CreateAlarmRequest{Alarm: alarm})
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	var env api.AlarmEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	_, _ = fmt.Fprintf(r.out, "added alarm %s (%s %s)\n", env.Alarm.Alarm.ID, env.Alarm.TimeDisplay, env.Alarm.RepeatDisplay)
	return 0
}

func (r *Runner) runShow(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	id, rest := takeID(args)
	if err := fs.Parse(rest); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl show <id>")
		return 2
	}
	body, err := r.request(ctx, http.MethodGet, "/v1/alarms/"+url.PathEscape(id), nil)
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	var env api.AlarmEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	a := env.Alarm.Alarm
	_, _ = fmt.Fprintf(r.out, "id:\t%s\n", a.ID)
	_, _ = fmt.Fprintf(r.out, "time:\t%s\n", env.Alarm.TimeDisplay)
	_, _ = fmt.Fprintf(r.out, "repeat:\t%s\n", env.Alarm.RepeatDisplay)
	_, _ = fmt.Fprintf(r.out, "label:\t%s\n", a.Label)
	_, _ = fmt.Fprintf(r.out, "enabled:\t%t\n", a.Enabled)
	_, _ = fmt.Fprintf(r.out, "mission:\t%s (%s)\n", a.MissionType, a.MissionDifficulty)
	if env.Alarm.NextOccurrence != nil {
		_, _ = fmt.Fprintf(r.out, "next:\t%s\n", *env.Alarm.NextOccurrence)
	}
	return 0
}

func (r *Runner) runSet(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	clock := fs.String("time", "", "wall clock HH:MM")
	enabled := fs.Bool("enabled", false, "enable or disable")
	flags := bindAlarmFlags(fs)
	jsonOut := fs.Bool("json", false, "output JSON")
	id, rest := takeID(args)
	if err := fs.Parse(rest); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl set <id> [flags]")
		return 2
	}
	var patch model.AlarmPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "time":
			patch.Time = clock
		case "enabled":
			patch.Enabled = enabled
		case "label":
			patch.Label = flags.label
		case "days":
			days, err := parseDays(*flags.days)
			if err == nil {
				patch.RepeatDays = &days
			}
		case "mission":
			mt := model.MissionType(*flags.mission)
			patch.MissionType = &mt
		case "difficulty":
			d := model.Difficulty(*flags.difficulty)
			patch.MissionDifficulty = &d
		case "sound":
			patch.Sound = flags.sound
		case "volume":
			patch.Volume = flags.volume
		case "snooze":
			patch.SnoozeEnabled = flags.snooze
		case "snooze-duration":
			patch.SnoozeDuration = flags.snoozeDuration
		case "vibrate":
			patch.Vibrate = flags.vibrate
		case "gradual-volume":
			patch.GradualVolume = flags.gradual
		case "reminder":
			patch.ReminderEnabled = flags.reminder
		case "followup":
			patch.FollowUpEnabled = flags.followUp
		case "followup-delay":
			patch.FollowUpDelay = flags.followUpDelay
		}
	})
	body, err := r.request(ctx, http.MethodPatch, "/v1/alarms/"+url.PathEscape(id), api.PatchAlarmRequest{Patch: patch})
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	_, _ = fmt.Fprintf(r.out, "updated alarm %s\n", id)
	return 0
}

func (r *Runner) runToggle(ctx context.Context, args []string) int {
	id, _ := takeID(args)
	if id == "" {
		_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl toggle <id>")
		return 2
	}
	body, err := r.request(ctx, http.MethodPost, "/v1/alarms/"+url.PathEscape(id)+"/toggle", nil)
	if err != nil {
		return r.handleErr(err)
	}
	var env api.AlarmEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	state := "off"
	if env.Alarm.Alarm.Enabled {
		state = "on"
	}
	_, _ = fmt.Fprintf(r.out, "alarm %s is now %s\n", id, state)
	return 0
}

func (r *Runner) runSkip(ctx context.Context, args []string) int {
	id, _ := takeID(args)
	if id == "" {
		_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl skip <id>")
		return 2
	}
	body, err := r.request(ctx, http.MethodPost, "/v1/alarms/"+url.PathEscape(id)+"/skip", nil)
	if err != nil {
		return r.handleErr(err)
	}
	var env api.SkipEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	_, _ = fmt.Fprintf(r.out, "skipped alarm %s occurrence at %s\n", id, env.Skipped.Format(time.RFC3339))
	return 0
}

func (r *Runner) runRemove(ctx context.Context, args []string) int {
	id, _ := takeID(args)
	if id == "" {
		_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl rm <id>")
		return 2
	}
	if _, err := r.request(ctx, http.MethodDelete, "/v1/alarms/"+url.PathEscape(id), nil); err != nil {
		return r.handleErr(err)
	}
	_, _ = fmt.Fprintf(r.out, "removed alarm %s\n", id)
	return 0
}

func (r *Runner) runHistory(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	body, err := r.request(ctx, http.MethodGet, "/v1/history", nil)
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	var env api.HistoryEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	for _, h := range env.History {
		rang := time.UnixMilli(h.RingTime).Format(time.RFC3339)
		outcome := "auto-dismissed"
		if h.DismissTime != nil {
			outcome = "dismissed"
		}
		if h.MissionCompleted {
			outcome = "mission completed"
		}
		_, _ = fmt.Fprintf(r.out, "%s\t%s\t%s\tsnoozed %d\n", rang, h.AlarmID, outcome, h.SnoozedCount)
	}
	return 0
}

func (r *Runner) runSettings(ctx context.Context, args []string) int {
	if len(args) > 0 && args[0] == "set" {
		return r.runSettingsSet(ctx, args[1:])
	}
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	body, err := r.request(ctx, http.MethodGet, "/v1/settings", nil)
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	var env api.SettingsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	s := env.Settings
	tier := "free"
	if env.Premium {
		tier = "premium"
	}
	_, _ = fmt.Fprintf(r.out, "tier:\t%s\n", tier)
	_, _ = fmt.Fprintf(r.out, "default snooze:\t%d min\n", s.DefaultSnooze)
	_, _ = fmt.Fprintf(r.out, "alarm duration:\t%d min\n", s.AlarmDuration)
	_, _ = fmt.Fprintf(r.out, "default mission:\t%s (%s)\n", s.DefaultMissionType, s.DefaultDifficulty)
	_, _ = fmt.Fprintf(r.out, "prevent uninstall:\t%t\n", s.PreventUninstall)
	_, _ = fmt.Fprintf(r.out, "gradual volume:\t%t\n", s.GradualVolumeIncrease)
	_, _ = fmt.Fprintf(r.out, "screen flash:\t%t\n", s.ScreenFlash)
	return 0
}

func (r *Runner) runSettingsSet(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	snooze := fs.Int("default-snooze", 0, "default snooze minutes")
	duration := fs.Int("alarm-duration", 0, "ring duration minutes")
	missionType := fs.String("default-mission", "", "default mission type")
	difficulty := fs.String("default-difficulty", "", "default difficulty")
	prevent := fs.Bool("prevent-uninstall", false, "require the mission to dismiss")
	gradual := fs.Bool("gradual-volume", false, "ramp volume up gradually")
	flash := fs.Bool("screen-flash", false, "flash the screen while ringing")
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	var patch model.SettingsPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "default-snooze":
			patch.DefaultSnooze = snooze
		case "alarm-duration":
			patch.AlarmDuration = duration
		case "default-mission":
			mt := model.MissionType(*missionType)
			patch.DefaultMissionType = &mt
		case "default-difficulty":
			d := model.Difficulty(*difficulty)
			patch.DefaultDifficulty = &d
		case "prevent-uninstall":
			patch.PreventUninstall = prevent
		case "gradual-volume":
			patch.GradualVolumeIncrease = gradual
		case "screen-flash":
			patch.ScreenFlash = flash
		}
	})
	body, err := r.request(ctx, http.MethodPatch, "/v1/settings", api.PatchSettingsRequest{Patch: patch})
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	_, _ = fmt.Fprintln(r.out, "settings updated")
	return 0
}

func (r *Runner) runScheduled(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("scheduled", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	body, err := r.request(ctx, http.MethodGet, "/v1/notifications", nil)
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	var env api.ScheduledEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return r.handleErr(err)
	}
	for _, n := range env.Scheduled {
		_, _ = fmt.Fprintf(r.out, "%s\t%s\t%s\t%s\n", n.Time.Format(time.RFC3339), n.Type, n.AlarmID, n.Title)
	}
	return 0
}

func (r *Runner) runRing(ctx context.Context, args []string) int {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return r.runRingAction(ctx, args)
	}
	fs := flag.NewFlagSet("ring", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	body, err := r.request(ctx, http.MethodGet, "/v1/ring", nil)
	if err != nil {
		return r.handleErr(err)
	}
	if *jsonOut {
		return r.printJSON(body)
	}
	var state api.RingStateResponse
	if err := json.Unmarshal(body, &state); err != nil {
		return r.handleErr(err)
	}
	if !state.Ringing {
		_, _ = fmt.Fprintln(r.out, "silent")
		return 0
	}
	_, _ = fmt.Fprintf(r.out, "alarm %s %s, %ds remaining, snoozed %d\n",
		state.AlarmID, state.State, state.Remaining, state.SnoozedCount)
	return 0
}

func (r *Runner) runRingAction(ctx context.Context, args []string) int {
	var path string
	switch args[0] {
	case "snooze":
		path = "/v1/ring/snooze"
	case "dismiss":
		path = "/v1/ring/dismiss"
	case "mission":
		if len(args) == 1 {
			body, err := r.request(ctx, http.MethodGet, "/v1/ring/mission", nil)
			if err != nil {
				return r.handleErr(err)
			}
			var env api.MissionEnvelope
			if err := json.Unmarshal(body, &env); err != nil {
				return r.handleErr(err)
			}
			_, _ = fmt.Fprintf(r.out, "mission:\t%s\n", env.MissionName)
			if env.Question != "" {
				_, _ = fmt.Fprintf(r.out, "question:\t%s\n", env.Question)
			}
			if env.Threshold > 0 {
				_, _ = fmt.Fprintf(r.out, "threshold:\t%d\n", env.Threshold)
			}
			return 0
		}
		switch args[1] {
		case "start", "complete", "abandon":
			path = "/v1/ring/mission/" + args[1]
		default:
			_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl ring mission [start|complete|abandon]")
			return 2
		}
	default:
		_, _ = fmt.Fprintf(r.errOut, "unknown ring command: %s\n", args[0])
		return 2
	}
	body, err := r.request(ctx, http.MethodPost, path, nil)
	if err != nil {
		return r.handleErr(err)
	}
	var state api.RingStateResponse
	if err := json.Unmarshal(body, &state); err != nil {
		return r.handleErr(err)
	}
	if state.Ringing {
		_, _ = fmt.Fprintf(r.out, "alarm %s %s\n", state.AlarmID, state.State)
	} else {
		_, _ = fmt.Fprintln(r.out, "silent")
	}
	return 0
}

func (r *Runner) runSounds(args []string) int {
	fs := flag.NewFlagSet("sounds", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
		return 2
	}
	if *jsonOut {
		raw, err := json.Marshal(model.SoundOptions)
		if err != nil {
			return r.handleErr(err)
		}
		return r.printJSON(raw)
	}
	for _, s := range model.SoundOptions {
		tier := "free"
		if s.Premium {
			tier = "premium"
		}
		_, _ = fmt.Fprintf(r.out, "%s\t%s\t%s\n", s.Value, s.Label, tier)
	}
	return 0
}

func takeID(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func (r *Runner) printJSON(body []byte) int {
	_, _ = r.out.Write(body)
	if len(body) == 0 || body[len(body)-1] != '\n' {
		_, _ = fmt.Fprintln(r.out)
	}
	return 0
}

func (r *Runner) handleErr(err error) int {
	_, _ = fmt.Fprintf(r.errOut, "error: %v\n", err)
	return 1
}

func (r *Runner) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		var er api.ErrorResponse
		if unmarshalErr := json.Unmarshal(payload, &er); unmarshalErr == nil && er.Error.Code != "" {
			return nil, fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
		}
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

func (r *Runner) printUsage() {
	_, _ = fmt.Fprintln(r.errOut, "usage: alarmctl [--socket <path>] <list|add|show|set|toggle|skip|rm|history|settings|scheduled|ring|sounds> ...")
}
