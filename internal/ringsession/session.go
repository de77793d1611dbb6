// Package ringsession governs the lifecycle of a single firing alarm, from
// ringing through optional mission, snooze, dismissal or auto-dismissal,
// and emits the history record at session end.
package ringsession

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/awakeful/alarmd/internal/entitlement"
	"github.com/awakeful/alarmd/internal/model"
	"github.com/awakeful/alarmd/internal/schedule"
)

type State string

const (
	StateRinging       State = "ringing"
	StateMissionActive State = "mission_active"
	StateSnoozed       State = "snoozed"
	StateDismissed     State = "dismissed"
	StateAutoDismissed State = "auto_dismissed"
)

func (s State) Terminal() bool {
	switch s {
	case StateSnoozed, StateDismissed, StateAutoDismissed:
		return true
	}
	return false
}

// FreeSnoozeLimit is how many snoozes a free-tier session allows.
const FreeSnoozeLimit = 3

var (
	ErrNotRinging       = errors.New("session is not ringing")
	ErrSnoozeDisabled   = errors.New("snooze is disabled for this alarm")
	ErrSnoozeLimit      = errors.New("snooze limit reached")
	ErrDismissBlocked   = errors.New("dismissal requires completing the mission")
	ErrNoMission        = errors.New("alarm has no mission")
	ErrMissionNotActive = errors.New("no mission in progress")
)

// AudioController abstracts alarm sound playback. Playback itself is
// presentation; the session only starts it, ramps volume, and guarantees
// it stops on every exit path.
type AudioController interface {
	Play(a model.Alarm, volume float64)
	SetVolume(volume float64)
	Stop()
}

// NopAudio is the silent AudioController.
type NopAudio struct{}

func (NopAudio) Play(model.Alarm, float64) {}
func (NopAudio) SetVolume(float64)         {}
func (NopAudio) Stop()                     {}

// Recorder is the slice of the repository a session writes back to.
type Recorder interface {
	AddHistory(ctx context.Context, entry model.AlarmHistory) model.AlarmHistory
	SetActiveAlarm(id string)
	ClearActiveAlarm(id string)
}

type Deps struct {
	Recorder    Recorder
	Adapter     *schedule.Adapter
	Entitlement entitlement.Checker
	Audio       AudioController
	Logger      *log.Logger
	Now         func() time.Time
	// TickPeriod is the real-time length of one countdown step; the
	// countdown itself is denominated in one-second steps. Zero means
	// one second.
	TickPeriod time.Duration
	// VolumeRamp is the interval between gradual volume steps. Zero
	// means three seconds.
	VolumeRamp time.Duration
}

const (
	gradualStartVolume = 0.3
	gradualVolumeStep  = 0.1
	gradualStepSeconds = 3
	defaultVolume      = 0.8
	defaultSnoozeMin   = 5
	defaultDurationMin = 10
)

type Session struct {
	mu       sync.Mutex
	deps     Deps
	alarm    model.Alarm
	settings model.AlarmSettings

	state     State
	ringTime  time.Time
	snoozed   int
	remaining int // seconds until auto-dismiss
	ticks     int
	rampEvery int // ticks between gradual volume steps
	volume    float64

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds a session in the Ringing state. priorSnoozes carries the
// snooze count forward when this firing is a snoozed re-ring of the same
// alarm; pass 0 for a fresh occurrence.
func New(deps Deps, alarm model.Alarm, settings model.AlarmSettings, priorSnoozes int) *Session {
	if deps.Audio == nil {
		deps.Audio = NopAudio{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.TickPeriod <= 0 {
		deps.TickPeriod = time.Second
	}
	if deps.VolumeRamp <= 0 {
		deps.VolumeRamp = gradualStepSeconds * time.Second
	}
	rampEvery := int(deps.VolumeRamp / deps.TickPeriod)
	if rampEvery < 1 {
		rampEvery = 1
	}
	duration := settings.AlarmDuration
	if duration <= 0 {
		duration = defaultDurationMin
	}
	volume := alarm.Volume
	if volume <= 0 {
		volume = defaultVolume
	}
	if settings.GradualVolumeIncrease || alarm.GradualVolume {
		volume = gradualStartVolume
	}
	if priorSnoozes < 0 {
		priorSnoozes = 0
	}
	return &Session{
		deps:      deps,
		alarm:     alarm,
		settings:  settings,
		state:     StateRinging,
		ringTime:  deps.Now(),
		snoozed:   priorSnoozes,
		remaining: duration * 60,
		rampEvery: rampEvery,
		volume:    volume,
		stop:      make(chan struct{}),
	}
}

// Start marks the alarm active, begins playback, and drives the per-second
// countdown until a terminal transition or ctx cancellation. The countdown
// timer is owned by the session and torn down on every exit path.
func (s *Session) Start(ctx context.Context) {
	if s.deps.Recorder != nil {
		s.deps.Recorder.SetActiveAlarm(s.alarm.ID)
	}
	s.mu.Lock()
	volume := s.volume
	s.mu.Unlock()
	s.deps.Audio.Play(s.alarm, volume)

	go func() {
		ticker := time.NewTicker(s.deps.TickPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				s.Discard()
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) AlarmID() string {
	return s.alarm.ID
}

// Remaining reports the seconds left before auto-dismissal.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Session) SnoozedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snoozed
}

// Tick advances the countdown by one second, ramping volume when gradual
// increase is on, and auto-dismisses when time runs out.
func (s *Session) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.remaining--
	s.ticks++
	var setVolume float64
	rampVolume := false
	if (s.settings.GradualVolumeIncrease || s.alarm.GradualVolume) && s.ticks%s.rampEvery == 0 {
		target := s.alarm.Volume
		if target <= 0 {
			target = defaultVolume
		}
		if s.volume < target {
			s.volume += gradualVolumeStep
			if s.volume > target {
				s.volume = target
			}
			setVolume = s.volume
			rampVolume = true
		}
	}
	expired := s.remaining <= 0
	if expired {
		s.state = StateAutoDismissed
	}
	s.mu.Unlock()

	if rampVolume {
		s.deps.Audio.SetVolume(setVolume)
	}
	if expired {
		// Auto-dismissal is always permitted, regardless of mission or
		// prevent-uninstall settings.
		s.finish(ctx, false, false)
	}
}

// Snooze ends the session without a history record and arms a snoozed
// re-ring. Free-tier sessions are limited to FreeSnoozeLimit snoozes.
func (s *Session) Snooze(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRinging {
		s.mu.Unlock()
		return ErrNotRinging
	}
	if !s.alarm.SnoozeEnabled {
		s.mu.Unlock()
		return ErrSnoozeDisabled
	}
	if !s.premium(ctx) && s.snoozed >= FreeSnoozeLimit {
		s.mu.Unlock()
		return ErrSnoozeLimit
	}
	s.snoozed++
	s.state = StateSnoozed
	s.mu.Unlock()

	s.teardown()
	duration := s.alarm.SnoozeDuration
	if duration <= 0 {
		duration = s.settings.DefaultSnooze
	}
	if duration <= 0 {
		duration = defaultSnoozeMin
	}
	if s.deps.Adapter != nil {
		s.deps.Adapter.ScheduleSnooze(ctx, s.alarm.ID, duration)
	}
	return nil
}

// Dismiss ends the session from the ringing state. Blocked entirely while
// prevent-uninstall is on; the mission is the only way out then.
func (s *Session) Dismiss(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRinging {
		s.mu.Unlock()
		return ErrNotRinging
	}
	if s.settings.PreventUninstall {
		s.mu.Unlock()
		return ErrDismissBlocked
	}
	s.state = StateDismissed
	s.mu.Unlock()

	s.finish(ctx, false, true)
	return nil
}

// StartMission moves a ringing session into the mission.
func (s *Session) StartMission(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRinging {
		return ErrNotRinging
	}
	if s.alarm.MissionType == "" || s.alarm.MissionType == model.MissionNone {
		return ErrNoMission
	}
	s.state = StateMissionActive
	return nil
}

// CompleteMission records a successful mission and dismisses.
func (s *Session) CompleteMission(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateMissionActive {
		s.mu.Unlock()
		return ErrMissionNotActive
	}
	s.state = StateDismissed
	s.mu.Unlock()

	s.finish(ctx, true, true)
	return nil
}

// AbandonMission is the emergency exit from an active mission. Not
// available while prevent-uninstall is on.
func (s *Session) AbandonMission(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateMissionActive {
		s.mu.Unlock()
		return ErrMissionNotActive
	}
	if s.settings.PreventUninstall {
		s.mu.Unlock()
		return ErrDismissBlocked
	}
	s.state = StateDismissed
	s.mu.Unlock()

	s.finish(ctx, false, false)
	return nil
}

// Discard tears the session down without emitting history, for host
// shutdown while a session is live.
func (s *Session) Discard() {
	s.mu.Lock()
	if !s.state.Terminal() {
		s.state = StateDismissed
	}
	s.mu.Unlock()
	s.teardown()
}

// finish runs the shared terminal path: stop timers and audio, emit the
// history record, and schedule the follow-up check when it applies.
func (s *Session) finish(ctx context.Context, missionCompleted, followUpEligible bool) {
	s.teardown()

	s.mu.Lock()
	snoozed := s.snoozed
	ringTime := s.ringTime
	s.mu.Unlock()

	if s.deps.Recorder != nil {
		dismissAt := s.deps.Now().UnixMilli()
		s.deps.Recorder.AddHistory(ctx, model.AlarmHistory{
			AlarmID:          s.alarm.ID,
			RingTime:         ringTime.UnixMilli(),
			DismissTime:      &dismissAt,
			SnoozedCount:     snoozed,
			MissionCompleted: missionCompleted,
			MissionType:      s.alarm.MissionType,
		})
	}
	if followUpEligible && s.alarm.FollowUpEnabled && s.premium(ctx) && s.deps.Adapter != nil {
		s.deps.Adapter.ScheduleFollowUp(ctx, s.alarm.ID, s.alarm.FollowUpDelay)
	}
}

// teardown releases the countdown timer, playback, and the active-alarm
// pointer. Safe to call more than once.
func (s *Session) teardown() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.deps.Audio.Stop()
	if s.deps.Recorder != nil {
		s.deps.Recorder.ClearActiveAlarm(s.alarm.ID)
	}
}

func (s *Session) premium(ctx context.Context) bool {
	if s.deps.Entitlement == nil {
		return false
	}
	premium, err := s.deps.Entitlement.IsPremium(ctx)
	if err != nil {
		s.deps.Logger.Printf("ringsession: entitlement check failed, assuming free tier: %v", err)
		return false
	}
	return premium
}
