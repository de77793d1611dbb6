// Package api defines the JSON envelopes exchanged over the daemon
// socket. Every response carries a schema version and generation time.
package api

import (
	"time"

	"github.com/awakeful/alarmd/internal/model"
)

const SchemaV1 = "v1"

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Error         APIError  `json:"error"`
}

type AlarmResponse struct {
	Alarm          model.Alarm `json:"alarm"`
	NextOccurrence *string     `json:"next_occurrence,omitempty"`
	TimeDisplay    string      `json:"time_display"`
	RepeatDisplay  string      `json:"repeat_display"`
}

type AlarmsEnvelope struct {
	SchemaVersion string          `json:"schema_version"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Alarms        []AlarmResponse `json:"alarms"`
	ActiveAlarmID string          `json:"active_alarm_id,omitempty"`
}

type AlarmEnvelope struct {
	SchemaVersion string        `json:"schema_version"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Alarm         AlarmResponse `json:"alarm"`
}

type HistoryEnvelope struct {
	SchemaVersion string               `json:"schema_version"`
	GeneratedAt   time.Time            `json:"generated_at"`
	History       []model.AlarmHistory `json:"history"`
}

type SettingsEnvelope struct {
	SchemaVersion string              `json:"schema_version"`
	GeneratedAt   time.Time           `json:"generated_at"`
	Settings      model.AlarmSettings `json:"settings"`
	Premium       bool                `json:"premium"`
}

type ScheduledItem struct {
	ID      string    `json:"id"`
	AlarmID string    `json:"alarm_id"`
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
}

type ScheduledEnvelope struct {
	SchemaVersion string          `json:"schema_version"`
	GeneratedAt   time.Time       `json:"generated_at"`
	Scheduled     []ScheduledItem `json:"scheduled"`
}

type RingStateResponse struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Ringing       bool      `json:"ringing"`
	AlarmID       string    `json:"alarm_id,omitempty"`
	State         string    `json:"state,omitempty"`
	Remaining     int       `json:"remaining_seconds,omitempty"`
	SnoozedCount  int       `json:"snoozed_count,omitempty"`
}

type MissionEnvelope struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	MissionType   string    `json:"mission_type"`
	MissionName   string    `json:"mission_name"`
	Question      string    `json:"question,omitempty"`
	Answer        int       `json:"answer,omitempty"`
	Threshold     int       `json:"threshold,omitempty"`
}

type CreateAlarmRequest struct {
	Alarm model.Alarm `json:"alarm"`
}

type PatchAlarmRequest struct {
	Patch model.AlarmPatch `json:"patch"`
}

type PatchSettingsRequest struct {
	Patch model.SettingsPatch `json:"patch"`
}

type SkipEnvelope struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	AlarmID       string    `json:"alarm_id"`
	Skipped       time.Time `json:"skipped_occurrence"`
}

type StatusResponse struct {
	SchemaVersion string    `json:"schema_version"`
	GeneratedAt   time.Time `json:"generated_at"`
	Status        string    `json:"status"`
}
