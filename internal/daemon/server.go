package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/awakeful/alarmd/internal/api"
	"github.com/awakeful/alarmd/internal/config"
	"github.com/awakeful/alarmd/internal/db"
	"github.com/awakeful/alarmd/internal/entitlement"
	"github.com/awakeful/alarmd/internal/mission"
	"github.com/awakeful/alarmd/internal/model"
	"github.com/awakeful/alarmd/internal/notify"
	"github.com/awakeful/alarmd/internal/occurrence"
	"github.com/awakeful/alarmd/internal/reconcile"
	"github.com/awakeful/alarmd/internal/repo"
	"github.com/awakeful/alarmd/internal/ringsession"
	"github.com/awakeful/alarmd/internal/schedule"
)

type Server struct {
	cfg      config.Config
	logger   *log.Logger
	httpSrv  *http.Server
	listener net.Listener
	lockFile *os.File

	store      *db.Store
	repo       *repo.Repository
	sched      *schedule.TimerScheduler
	adapter    *schedule.Adapter
	reconciler *reconcile.Reconciler
	ent        entitlement.Checker
	sink       notify.Sink
	audio      ringsession.AudioController

	baseCtx     context.Context
	reconcileCh chan struct{}

	mu      sync.Mutex
	rngMu   sync.Mutex
	rng     *rand.Rand
	ringMu  sync.Mutex
	session *ringsession.Session
	// snooze counts carried across the re-ring of a snoozed alarm, keyed
	// by alarm id. An entry also shields the pending snooze notification
	// from being cancelled by reconciliation.
	pendingSnooze map[string]int
	// occurrences cancelled via the skip action, keyed by alarm id. An
	// entry keeps the alarm out of reconciliation until the skipped
	// instant passes, so the periodic run cannot resurrect it.
	skipped map[string]time.Time

	shutdown    sync.Once
	shutdownErr error
}

func NewServer(cfg config.Config, store *db.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	mux := http.NewServeMux()
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		store:         store,
		sink:          notify.LogSink{Logger: logger},
		reconcileCh:   make(chan struct{}, 1),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		pendingSnooze: map[string]int{},
		skipped:       map[string]time.Time{},
		httpSrv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
	s.repo = repo.New(store, logger)
	s.sched = schedule.NewTimerScheduler(s.onFire)
	s.adapter = schedule.NewAdapter(s.sched, logger)
	s.ent = entitlement.NewCached(entitlement.Static(cfg.Premium), cfg.EntitlementTTL)
	s.reconciler = reconcile.NewReconciler(reconcileLister{s}, s.adapter, s.ent, logger)

	mux.HandleFunc("/v1/health", s.healthHandler)
	mux.HandleFunc("/v1/alarms", s.alarmsHandler)
	mux.HandleFunc("/v1/alarms/", s.alarmByIDHandler)
	mux.HandleFunc("/v1/history", s.historyHandler)
	mux.HandleFunc("/v1/settings", s.settingsHandler)
	mux.HandleFunc("/v1/notifications", s.notificationsHandler)
	mux.HandleFunc("/v1/ring", s.ringStateHandler)
	mux.HandleFunc("/v1/ring/", s.ringActionHandler)
	return s
}

// SetSink replaces the notification delivery sink. Must be called before
// Start.
func (s *Server) SetSink(sink notify.Sink) {
	if sink != nil {
		s.sink = sink
	}
}

// SetAudio attaches a playback controller for ring sessions. Must be
// called before Start.
func (s *Server) SetAudio(audio ringsession.AudioController) {
	s.audio = audio
}

// Repo exposes the repository for tests.
func (s *Server) Repo() *repo.Repository {
	return s.repo
}

func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = ctx
	if err := s.repo.Load(ctx); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	s.repo.Subscribe(s.requestReconcile)

	if err := os.MkdirAll(filepath.Dir(s.cfg.SocketPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := s.acquireLock(); err != nil {
		return err
	}
	if st, err := os.Lstat(s.cfg.SocketPath); err == nil {
		if st.Mode()&os.ModeSocket == 0 {
			s.releaseLock() //nolint:errcheck
			return fmt.Errorf("socket path exists and is not unix socket: %s", s.cfg.SocketPath)
		}
		if err := os.Remove(s.cfg.SocketPath); err != nil {
			s.releaseLock() //nolint:errcheck
			return fmt.Errorf("remove stale socket: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		s.releaseLock() //nolint:errcheck
		return fmt.Errorf("stat socket path: %w", err)
	}
	ln, err := net.Listen("unix", s.cfg.SocketPath)
	if err != nil {
		s.releaseLock()
		return fmt.Errorf("listen uds: %w", err)
	}
	if err := os.Chmod(s.cfg.SocketPath, 0o600); err != nil {
		ln.Close() //nolint:errcheck
		s.releaseLock()
		return fmt.Errorf("chmod socket: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go s.reconcileLoop(ctx)
	s.requestReconcile()

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("serve uds: %w", err)
		}
		return nil
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Do(func() {
		var errs []error
		s.ringMu.Lock()
		session := s.session
		s.session = nil
		s.ringMu.Unlock()
		if session != nil {
			session.Discard()
		}
		s.sched.Close()
		if s.httpSrv != nil {
			if err := s.httpSrv.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		s.mu.Lock()
		listener := s.listener
		s.listener = nil
		s.mu.Unlock()
		if listener != nil {
			if err := listener.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.cfg.SocketPath != "" {
			if err := os.Remove(s.cfg.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
		if err := s.releaseLock(); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			s.shutdownErr = fmt.Errorf("shutdown errors: %v", errs)
		}
	})
	return s.shutdownErr
}

// reconcileLister feeds the reconciler every alarm except those with a
// snoozed re-ring pending or a skipped occurrence still ahead, so
// reconciliation cannot cancel an armed snooze notification or
// resurrect a skipped one.
type reconcileLister struct {
	s *Server
}

func (l reconcileLister) Alarms() []model.Alarm {
	all := l.s.repo.Alarms()
	now := time.Now()
	l.s.ringMu.Lock()
	defer l.s.ringMu.Unlock()
	for id, at := range l.s.skipped {
		if !at.After(now) {
			delete(l.s.skipped, id)
		}
	}
	if len(l.s.pendingSnooze) == 0 && len(l.s.skipped) == 0 {
		return all
	}
	kept := all[:0]
	for _, a := range all {
		if _, snoozed := l.s.pendingSnooze[a.ID]; snoozed {
			continue
		}
		if _, skip := l.s.skipped[a.ID]; skip {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func (s *Server) requestReconcile() {
	select {
	case s.reconcileCh <- struct{}{}:
	default:
	}
}

func (s *Server) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.reconcileCh:
		}
		s.reconciler.Run(ctx)
	}
}

// onFire is the timer callback for every due notification. Ringing
// alarms open a ring session; reminders and follow-ups go to the
// delivery sink.
func (s *Server) onFire(n model.ScheduledNotification) {
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	switch n.Payload.Type {
	case model.NotificationAlarm:
		s.startRing(ctx, n.Payload.AlarmID)
	default:
		if err := s.sink.Deliver(ctx, n); err != nil {
			s.logger.Printf("daemon: deliver %s notification for alarm %s: %v", n.Payload.Type, n.Payload.AlarmID, err)
		}
	}
}

func (s *Server) startRing(ctx context.Context, alarmID string) {
	alarm, ok := s.repo.Alarm(alarmID)
	if !ok || !alarm.Enabled {
		s.ringMu.Lock()
		delete(s.pendingSnooze, alarmID)
		s.ringMu.Unlock()
		s.requestReconcile()
		return
	}

	s.ringMu.Lock()
	if s.session != nil && !s.session.State().Terminal() {
		// Drop the firing, but release any snooze shield so the next
		// reconcile run reschedules the alarm instead of leaving it with
		// no outstanding notifications.
		delete(s.pendingSnooze, alarmID)
		s.ringMu.Unlock()
		s.logger.Printf("daemon: alarm %s due while alarm %s is ringing, dropped", alarmID, s.repo.ActiveAlarm())
		s.requestReconcile()
		return
	}
	prior := s.pendingSnooze[alarmID]
	delete(s.pendingSnooze, alarmID)
	session := ringsession.New(ringsession.Deps{
		Recorder:    s.repo,
		Adapter:     s.adapter,
		Entitlement: s.ent,
		Audio:       s.audio,
		Logger:      s.logger,
		TickPeriod:  s.cfg.SessionTickPeriod,
		VolumeRamp:  s.cfg.GradualVolumeRamp,
	}, alarm, s.repo.Settings(), prior)
	s.session = session
	s.ringMu.Unlock()

	s.logger.Printf("daemon: alarm %s ringing (snoozed %d times)", alarmID, prior)
	session.Start(ctx)
}

// currentSession returns the live session, or nil when nothing rings.
func (s *Server) currentSession() *ringsession.Session {
	s.ringMu.Lock()
	defer s.ringMu.Unlock()
	if s.session == nil || s.session.State().Terminal() {
		return nil
	}
	return s.session
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	resp := api.HealthResponse{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Status:        "ok",
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) alarmsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAlarms(w, r)
	case http.MethodPost:
		s.createAlarm(w, r)
	default:
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) alarmResponse(a model.Alarm, now time.Time) api.AlarmResponse {
	resp := api.AlarmResponse{
		Alarm:         a,
		TimeDisplay:   occurrence.FormatClock(a.Time),
		RepeatDisplay: occurrence.FormatRepeatDays(a.RepeatDays),
	}
	if next, ok := occurrence.Next(a, now); ok {
		formatted := next.Format(time.RFC3339)
		resp.NextOccurrence = &formatted
	}
	return resp
}

func (s *Server) listAlarms(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	alarms := s.repo.Alarms()
	items := make([]api.AlarmResponse, 0, len(alarms))
	for _, a := range alarms {
		items = append(items, s.alarmResponse(a, now))
	}
	resp := api.AlarmsEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   now.UTC(),
		Alarms:        items,
		ActiveAlarmID: s.repo.ActiveAlarm(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createAlarm(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAlarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "invalid request body")
		return
	}
	draft := req.Alarm
	settings := s.repo.Settings()
	if draft.MissionType == "" {
		draft.MissionType = settings.DefaultMissionType
	}
	if draft.MissionDifficulty == "" {
		draft.MissionDifficulty = settings.DefaultDifficulty
	}
	if draft.Sound == "" {
		draft.Sound = model.DefaultSound
		if opt, ok := model.SoundByValue(draft.Sound); ok {
			draft.SoundName = opt.Label
		}
	}
	if err := draft.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, err.Error())
		return
	}
	created := s.repo.AddAlarm(r.Context(), draft)
	resp := api.AlarmEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Alarm:         s.alarmResponse(created, time.Now()),
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) alarmByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/alarms/")
	if rest == "" {
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm route not found")
		return
	}
	id, action, _ := strings.Cut(rest, "/")
	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.getAlarm(w, r, id)
		case http.MethodPatch:
			s.patchAlarm(w, r, id)
		case http.MethodDelete:
			s.deleteAlarm(w, r, id)
		default:
			s.methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case "toggle":
		if r.Method != http.MethodPost {
			s.methodNotAllowed(w, http.MethodPost)
			return
		}
		s.toggleAlarm(w, r, id)
	case "skip":
		if r.Method != http.MethodPost {
			s.methodNotAllowed(w, http.MethodPost)
			return
		}
		s.skipAlarm(w, r, id)
	default:
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm route not found")
	}
}

func (s *Server) getAlarm(w http.ResponseWriter, _ *http.Request, id string) {
	alarm, ok := s.repo.Alarm(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm not found")
		return
	}
	resp := api.AlarmEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Alarm:         s.alarmResponse(alarm, time.Now()),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) patchAlarm(w http.ResponseWriter, r *http.Request, id string) {
	alarm, ok := s.repo.Alarm(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm not found")
		return
	}
	var req api.PatchAlarmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "invalid request body")
		return
	}
	patched := req.Patch.Apply(alarm)
	if err := patched.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, err.Error())
		return
	}
	s.ringMu.Lock()
	delete(s.skipped, id)
	s.ringMu.Unlock()
	s.repo.UpdateAlarm(r.Context(), id, req.Patch)
	updated, _ := s.repo.Alarm(id)
	resp := api.AlarmEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Alarm:         s.alarmResponse(updated, time.Now()),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteAlarm(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.repo.Alarm(id); !ok {
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm not found")
		return
	}
	s.repo.DeleteAlarm(r.Context(), id)
	s.adapter.CancelAll(r.Context(), id)
	s.ringMu.Lock()
	delete(s.pendingSnooze, id)
	delete(s.skipped, id)
	s.ringMu.Unlock()
	s.writeStatus(w, http.StatusOK, "deleted")
}

func (s *Server) toggleAlarm(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := s.repo.Alarm(id); !ok {
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm not found")
		return
	}
	s.repo.ToggleAlarm(r.Context(), id)
	updated, _ := s.repo.Alarm(id)
	if !updated.Enabled {
		s.adapter.CancelAll(r.Context(), id)
		s.ringMu.Lock()
		delete(s.pendingSnooze, id)
		delete(s.skipped, id)
		s.ringMu.Unlock()
	}
	resp := api.AlarmEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Alarm:         s.alarmResponse(updated, time.Now()),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// skipAlarm cancels the next occurrence of a recurring alarm without
// disabling it. The reminder notifications of the same occurrence fall
// with it; later recurrences are untouched.
func (s *Server) skipAlarm(w http.ResponseWriter, r *http.Request, id string) {
	alarm, ok := s.repo.Alarm(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm not found")
		return
	}
	next, ok := occurrence.Next(alarm, time.Now())
	if !ok {
		s.writeError(w, http.StatusConflict, model.ErrConflict, "alarm has no upcoming occurrence")
		return
	}
	s.adapter.CancelOccurrence(r.Context(), id, next)
	s.ringMu.Lock()
	s.skipped[id] = next
	s.ringMu.Unlock()
	resp := api.SkipEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		AlarmID:       id,
		Skipped:       next,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	resp := api.HistoryEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		History:       s.repo.History(),
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) settingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPatch:
		var req api.PatchSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "invalid request body")
			return
		}
		if req.Patch.DefaultMissionType != nil && !req.Patch.DefaultMissionType.Valid() {
			s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "unknown mission type")
			return
		}
		if req.Patch.DefaultDifficulty != nil && !req.Patch.DefaultDifficulty.Valid() {
			s.writeError(w, http.StatusBadRequest, model.ErrRefInvalid, "unknown difficulty")
			return
		}
		s.repo.UpdateSettings(r.Context(), req.Patch)
	default:
		s.methodNotAllowed(w, http.MethodGet, http.MethodPatch)
		return
	}
	premium, err := s.ent.IsPremium(r.Context())
	if err != nil {
		s.logger.Printf("daemon: entitlement check failed: %v", err)
		premium = false
	}
	resp := api.SettingsEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Settings:      s.repo.Settings(),
		Premium:       premium,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	scheduled, err := s.sched.ListScheduled(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, model.ErrInternal, err.Error())
		return
	}
	items := make([]api.ScheduledItem, 0, len(scheduled))
	for _, n := range scheduled {
		items = append(items, api.ScheduledItem{
			ID:      n.ID,
			AlarmID: n.Payload.AlarmID,
			Type:    string(n.Payload.Type),
			Time:    n.Time,
			Title:   n.Payload.Title,
			Body:    n.Payload.Body,
		})
	}
	resp := api.ScheduledEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Scheduled:     items,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ringStateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}
	s.writeRingState(w)
}

func (s *Server) writeRingState(w http.ResponseWriter) {
	resp := api.RingStateResponse{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
	}
	if session := s.currentSession(); session != nil {
		resp.Ringing = true
		resp.AlarmID = session.AlarmID()
		resp.State = string(session.State())
		resp.Remaining = session.Remaining()
		resp.SnoozedCount = session.SnoozedCount()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ringActionHandler(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimPrefix(r.URL.Path, "/v1/ring/")
	if action == "mission" && r.Method == http.MethodGet {
		s.missionContent(w, r)
		return
	}
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}
	session := s.currentSession()
	if session == nil {
		s.writeError(w, http.StatusConflict, model.ErrConflict, "no alarm is ringing")
		return
	}
	var err error
	switch action {
	case "snooze":
		// Shield the alarm from reconciliation before the snooze
		// notification is armed; a reconcile run landing in between
		// would cancel it. The error path lifts the shield again.
		alarmID := session.AlarmID()
		s.ringMu.Lock()
		s.pendingSnooze[alarmID] = session.SnoozedCount() + 1
		s.ringMu.Unlock()
		err = session.Snooze(r.Context())
		s.ringMu.Lock()
		if err != nil {
			delete(s.pendingSnooze, alarmID)
		} else {
			s.pendingSnooze[alarmID] = session.SnoozedCount()
		}
		s.ringMu.Unlock()
		if err != nil {
			s.requestReconcile()
		}
	case "dismiss":
		err = session.Dismiss(r.Context())
	case "mission/start":
		err = session.StartMission(r.Context())
	case "mission/complete":
		err = session.CompleteMission(r.Context())
	case "mission/abandon":
		err = session.AbandonMission(r.Context())
	default:
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "ring route not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusConflict, model.ErrConflict, err.Error())
		return
	}
	s.writeRingState(w)
}

// missionContent serves the challenge for the currently ringing alarm.
func (s *Server) missionContent(w http.ResponseWriter, _ *http.Request) {
	session := s.currentSession()
	if session == nil {
		s.writeError(w, http.StatusConflict, model.ErrConflict, "no alarm is ringing")
		return
	}
	alarm, ok := s.repo.Alarm(session.AlarmID())
	if !ok {
		s.writeError(w, http.StatusNotFound, model.ErrRefNotFound, "alarm not found")
		return
	}
	difficulty := alarm.MissionDifficulty
	if difficulty == "" {
		difficulty = s.repo.Settings().DefaultDifficulty
	}
	resp := api.MissionEnvelope{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		MissionType:   string(alarm.MissionType),
		MissionName:   mission.Name(alarm.MissionType),
	}
	switch alarm.MissionType {
	case model.MissionMath:
		s.rngMu.Lock()
		problem := mission.GenerateMath(difficulty, s.rng)
		s.rngMu.Unlock()
		resp.Question = problem.Question
		resp.Answer = problem.Answer
	case model.MissionShake:
		resp.Threshold = mission.ShakeThreshold(difficulty)
	case model.MissionMemory:
		resp.Threshold = mission.MemorySequenceLength(difficulty)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) acquireLock() error {
	lockPath := s.cfg.SocketPath + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close() //nolint:errcheck
		return fmt.Errorf("daemon already running")
	}
	s.mu.Lock()
	s.lockFile = f
	s.mu.Unlock()
	return nil
}

func (s *Server) releaseLock() error {
	s.mu.Lock()
	f := s.lockFile
	s.lockFile = nil
	s.mu.Unlock()
	if f == nil {
		return nil
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeStatus(w http.ResponseWriter, status int, message string) {
	resp := api.StatusResponse{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Status:        message,
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	resp := api.ErrorResponse{
		SchemaVersion: api.SchemaV1,
		GeneratedAt:   time.Now().UTC(),
		Error: api.APIError{
			Code:    code,
			Message: msg,
		},
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allow ...string) {
	if len(allow) > 0 {
		w.Header().Set("Allow", strings.Join(allow, ", "))
	}
	s.writeError(w, http.StatusMethodNotAllowed, model.ErrRefInvalid, "method not allowed")
}
