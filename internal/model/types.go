package model

import (
	"fmt"
	"time"
)

// MissionType selects which wake-up challenge gates alarm dismissal.
// The scheduler treats it as opaque; the ring session only distinguishes
// MissionNone from everything else.
type MissionType string

const (
	MissionNone       MissionType = "none"
	MissionMath       MissionType = "math"
	MissionShake      MissionType = "shake"
	MissionPhoto      MissionType = "photo"
	MissionBarcode    MissionType = "barcode"
	MissionMemory     MissionType = "memory"
	MissionWalk       MissionType = "walk"
	MissionObjectFind MissionType = "object-find"
	MissionSing       MissionType = "sing"
	MissionRiddle     MissionType = "riddle"
)

// MissionTypes lists every valid mission type. Adding a mission means
// extending this list and the exhaustive switches in internal/mission.
var MissionTypes = []MissionType{
	MissionNone,
	MissionMath,
	MissionShake,
	MissionPhoto,
	MissionBarcode,
	MissionMemory,
	MissionWalk,
	MissionObjectFind,
	MissionSing,
	MissionRiddle,
}

func (m MissionType) Valid() bool {
	for _, known := range MissionTypes {
		if m == known {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Alarm is a persisted scheduling rule. Time is a timezone-naive "HH:MM"
// wall clock, interpreted in device-local time when the next occurrence is
// computed. An empty RepeatDays means a one-time alarm that rings at the
// next matching wall-clock time (today or tomorrow).
type Alarm struct {
	ID                string      `json:"id"`
	Time              string      `json:"time"`
	Enabled           bool        `json:"enabled"`
	Label             string      `json:"label"`
	RepeatDays        []int       `json:"repeatDays"`
	MissionType       MissionType `json:"missionType"`
	MissionDifficulty Difficulty  `json:"missionDifficulty"`
	Sound             string      `json:"sound"`
	SoundName         string      `json:"soundName"`
	Vibrate           bool        `json:"vibrate"`
	SnoozeEnabled     bool        `json:"snoozeEnabled"`
	SnoozeDuration    int         `json:"snoozeDuration"`
	Volume            float64     `json:"volume"`
	GradualVolume     bool        `json:"gradualVolume"`
	WeatherInfo       bool        `json:"weatherInfo"`
	CreatedAt         int64       `json:"createdAt"`
	ReminderEnabled   bool        `json:"reminderEnabled"`
	FollowUpEnabled   bool        `json:"followUpEnabled"`
	FollowUpDelay     int         `json:"followUpDelay"`
}

// Validate checks the fields the scheduler depends on. Presentation fields
// (sound, volume, label) are accepted as-is.
func (a Alarm) Validate() error {
	if _, _, err := ParseClock(a.Time); err != nil {
		return err
	}
	for _, d := range a.RepeatDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("repeat day %d out of range [0,6]", d)
		}
	}
	if a.MissionType != "" && !a.MissionType.Valid() {
		return fmt.Errorf("unknown mission type %q", a.MissionType)
	}
	if a.MissionDifficulty != "" && !a.MissionDifficulty.Valid() {
		return fmt.Errorf("unknown difficulty %q", a.MissionDifficulty)
	}
	return nil
}

// ParseClock parses an "HH:MM" wall-clock string, hours 0-23, minutes 0-59.
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	for i, c := range s {
		if i == 2 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, 0, fmt.Errorf("clock %q: want HH:MM", s)
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q: hour or minute out of range", s)
	}
	return hour, minute, nil
}

// AlarmPatch is a partial alarm update. Nil fields are left untouched.
type AlarmPatch struct {
	Time              *string      `json:"time,omitempty"`
	Enabled           *bool        `json:"enabled,omitempty"`
	Label             *string      `json:"label,omitempty"`
	RepeatDays        *[]int       `json:"repeatDays,omitempty"`
	MissionType       *MissionType `json:"missionType,omitempty"`
	MissionDifficulty *Difficulty  `json:"missionDifficulty,omitempty"`
	Sound             *string      `json:"sound,omitempty"`
	SoundName         *string      `json:"soundName,omitempty"`
	Vibrate           *bool        `json:"vibrate,omitempty"`
	SnoozeEnabled     *bool        `json:"snoozeEnabled,omitempty"`
	SnoozeDuration    *int         `json:"snoozeDuration,omitempty"`
	Volume            *float64     `json:"volume,omitempty"`
	GradualVolume     *bool        `json:"gradualVolume,omitempty"`
	WeatherInfo       *bool        `json:"weatherInfo,omitempty"`
	ReminderEnabled   *bool        `json:"reminderEnabled,omitempty"`
	FollowUpEnabled   *bool        `json:"followUpEnabled,omitempty"`
	FollowUpDelay     *int         `json:"followUpDelay,omitempty"`
}

// Apply merges the patch into the alarm and returns the result.
func (p AlarmPatch) Apply(a Alarm) Alarm {
	if p.Time != nil {
		a.Time = *p.Time
	}
	if p.Enabled != nil {
		a.Enabled = *p.Enabled
	}
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.RepeatDays != nil {
		a.RepeatDays = append([]int(nil), (*p.RepeatDays)...)
	}
	if p.MissionType != nil {
		a.MissionType = *p.MissionType
	}
	if p.MissionDifficulty != nil {
		a.MissionDifficulty = *p.MissionDifficulty
	}
	if p.Sound != nil {
		a.Sound = *p.Sound
	}
	if p.SoundName != nil {
		a.SoundName = *p.SoundName
	}
	if p.Vibrate != nil {
		a.Vibrate = *p.Vibrate
	}
	if p.SnoozeEnabled != nil {
		a.SnoozeEnabled = *p.SnoozeEnabled
	}
	if p.SnoozeDuration != nil {
		a.SnoozeDuration = *p.SnoozeDuration
	}
	if p.Volume != nil {
		a.Volume = *p.Volume
	}
	if p.GradualVolume != nil {
		a.GradualVolume = *p.GradualVolume
	}
	if p.WeatherInfo != nil {
		a.WeatherInfo = *p.WeatherInfo
	}
	if p.ReminderEnabled != nil {
		a.ReminderEnabled = *p.ReminderEnabled
	}
	if p.FollowUpEnabled != nil {
		a.FollowUpEnabled = *p.FollowUpEnabled
	}
	if p.FollowUpDelay != nil {
		a.FollowUpDelay = *p.FollowUpDelay
	}
	return a
}

// AlarmHistory is an immutable record of one completed ring session.
// AlarmID is a weak reference: the alarm may be deleted later while the
// record is retained. Times are unix milliseconds.
type AlarmHistory struct {
	ID               string      `json:"id"`
	AlarmID          string      `json:"alarmId"`
	RingTime         int64       `json:"ringTime"`
	DismissTime      *int64      `json:"dismissTime,omitempty"`
	SnoozedCount     int         `json:"snoozedCount"`
	MissionCompleted bool        `json:"missionCompleted"`
	MissionType      MissionType `json:"missionType"`
}

// HistoryLimit caps retained history records, oldest evicted first.
const HistoryLimit = 100

// AlarmSettings is the process-wide behavior configuration, replaced
// wholesale on update.
type AlarmSettings struct {
	DefaultMissionType    MissionType `json:"defaultMissionType"`
	DefaultDifficulty     Difficulty  `json:"defaultDifficulty"`
	DefaultSnooze         int         `json:"defaultSnooze"`
	PreventUninstall      bool        `json:"preventUninstall"`
	VolumeButtonsDisabled bool        `json:"volumeButtonsDisabled"`
	ScreenFlash           bool        `json:"screenFlash"`
	GradualVolumeIncrease bool        `json:"gradualVolumeIncrease"`
	AlarmDuration         int         `json:"alarmDuration"`
}

func DefaultSettings() AlarmSettings {
	return AlarmSettings{
		DefaultMissionType:    MissionNone,
		DefaultDifficulty:     DifficultyMedium,
		DefaultSnooze:         5,
		PreventUninstall:      false,
		VolumeButtonsDisabled: false,
		ScreenFlash:           true,
		GradualVolumeIncrease: false,
		AlarmDuration:         10,
	}
}

// SettingsPatch is a partial settings update, shallow-merged.
type SettingsPatch struct {
	DefaultMissionType    *MissionType `json:"defaultMissionType,omitempty"`
	DefaultDifficulty     *Difficulty  `json:"defaultDifficulty,omitempty"`
	DefaultSnooze         *int         `json:"defaultSnooze,omitempty"`
	PreventUninstall      *bool        `json:"preventUninstall,omitempty"`
	VolumeButtonsDisabled *bool        `json:"volumeButtonsDisabled,omitempty"`
	ScreenFlash           *bool        `json:"screenFlash,omitempty"`
	GradualVolumeIncrease *bool        `json:"gradualVolumeIncrease,omitempty"`
	AlarmDuration         *int         `json:"alarmDuration,omitempty"`
}

func (p SettingsPatch) Apply(s AlarmSettings) AlarmSettings {
	if p.DefaultMissionType != nil {
		s.DefaultMissionType = *p.DefaultMissionType
	}
	if p.DefaultDifficulty != nil {
		s.DefaultDifficulty = *p.DefaultDifficulty
	}
	if p.DefaultSnooze != nil {
		s.DefaultSnooze = *p.DefaultSnooze
	}
	if p.PreventUninstall != nil {
		s.PreventUninstall = *p.PreventUninstall
	}
	if p.VolumeButtonsDisabled != nil {
		s.VolumeButtonsDisabled = *p.VolumeButtonsDisabled
	}
	if p.ScreenFlash != nil {
		s.ScreenFlash = *p.ScreenFlash
	}
	if p.GradualVolumeIncrease != nil {
		s.GradualVolumeIncrease = *p.GradualVolumeIncrease
	}
	if p.AlarmDuration != nil {
		s.AlarmDuration = *p.AlarmDuration
	}
	return s
}

// NotificationType tags a scheduled notification's role.
type NotificationType string

const (
	NotificationAlarm    NotificationType = "alarm"
	NotificationReminder NotificationType = "reminder"
	NotificationFollowUp NotificationType = "followup"
)

type ReminderKind string

const (
	ReminderOneHour ReminderKind = "1hour"
	ReminderTenMin  ReminderKind = "10min"
)

// Priority is the delivery urgency hint attached to a notification.
type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityHigh Priority = "high"
	PriorityMax  Priority = "max"
)

// NotificationPayload is the metadata bag a scheduled notification carries.
// The reconciliation loop cancels by AlarmID; single-occurrence cancels
// match AlarmTime.
type NotificationPayload struct {
	AlarmID      string           `json:"alarm_id"`
	Type         NotificationType `json:"type"`
	ReminderType ReminderKind     `json:"reminder_type,omitempty"`
	AlarmTime    *time.Time       `json:"alarm_time,omitempty"`
	Title        string           `json:"title"`
	Body         string           `json:"body"`
	Sound        bool             `json:"sound"`
	Priority     Priority         `json:"priority"`
	CancelAction bool             `json:"cancel_action,omitempty"`
}

// ScheduledNotification is an outstanding entry in the external scheduler.
type ScheduledNotification struct {
	ID      string              `json:"id"`
	Time    time.Time           `json:"time"`
	Payload NotificationPayload `json:"payload"`
}

// API error codes shared by the daemon and CLI.
const (
	ErrRefInvalid  = "E_REF_INVALID"
	ErrRefNotFound = "E_REF_NOT_FOUND"
	ErrConflict    = "E_CONFLICT"
	ErrInternal    = "E_INTERNAL"
)
