// Package appclient is the HTTP client for the daemon socket, shared by
// the CLI and integration tests.
package appclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/awakeful/alarmd/internal/api"
	"github.com/awakeful/alarmd/internal/config"
	"github.com/awakeful/alarmd/internal/model"
)

type Client struct {
	baseURL      string
	client       *http.Client
	unaryTimeout time.Duration
}

func New(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
	}
	return NewWithClient("http://unix", &http.Client{Transport: transport})
}

func NewWithClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{}
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       client,
		unaryTimeout: config.DefaultConfig().ClientTimeout,
	}
}

func (c *Client) WithUnaryTimeout(timeout time.Duration) *Client {
	if c == nil {
		return nil
	}
	clone := *c
	clone.unaryTimeout = timeout
	return &clone
}

type RequestError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	message := strings.TrimSpace(e.Message)
	if code != "" && message != "" {
		return fmt.Sprintf("%s: %s", code, message)
	}
	if code != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("http %d: %s", e.StatusCode, code)
		}
		return code
	}
	if message != "" {
		if e.StatusCode > 0 {
			return fmt.Sprintf("http %d: %s", e.StatusCode, message)
		}
		return message
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return "http error"
}

func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.getJSON(ctx, "/v1/health", &resp)
	return resp, err
}

func (c *Client) ListAlarms(ctx context.Context) (api.AlarmsEnvelope, error) {
	var env api.AlarmsEnvelope
	err := c.getJSON(ctx, "/v1/alarms", &env)
	return env, err
}

func (c *Client) GetAlarm(ctx context.Context, id string) (api.AlarmEnvelope, error) {
	var env api.AlarmEnvelope
	err := c.getJSON(ctx, "/v1/alarms/"+url.PathEscape(id), &env)
	return env, err
}

func (c *Client) CreateAlarm(ctx context.Context, alarm model.Alarm) (api.AlarmEnvelope, error) {
	var env api.AlarmEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/v1/alarms", api.CreateAlarmRequest{Alarm: alarm}, &env)
	return env, err
}

func (c *Client) PatchAlarm(ctx context.Context, id string, patch model.AlarmPatch) (api.AlarmEnvelope, error) {
	var env api.AlarmEnvelope
	err := c.doJSON(ctx, http.MethodPatch, "/v1/alarms/"+url.PathEscape(id), api.PatchAlarmRequest{Patch: patch}, &env)
	return env, err
}

func (c *Client) DeleteAlarm(ctx context.Context, id string) error {
	_, err := c.request(ctx, http.MethodDelete, "/v1/alarms/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) ToggleAlarm(ctx context.Context, id string) (api.AlarmEnvelope, error) {
	var env api.AlarmEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/v1/alarms/"+url.PathEscape(id)+"/toggle", nil, &env)
	return env, err
}

// SkipAlarm cancels the next occurrence without disabling the alarm.
func (c *Client) SkipAlarm(ctx context.Context, id string) (api.SkipEnvelope, error) {
	var env api.SkipEnvelope
	err := c.doJSON(ctx, http.MethodPost, "/v1/alarms/"+url.PathEscape(id)+"/skip", nil, &env)
	return env, err
}

func (c *Client) History(ctx context.Context) (api.HistoryEnvelope, error) {
	var env api.HistoryEnvelope
	err := c.getJSON(ctx, "/v1/history", &env)
	return env, err
}

func (c *Client) Settings(ctx context.Context) (api.SettingsEnvelope, error) {
	var env api.SettingsEnvelope
	err := c.getJSON(ctx, "/v1/settings", &env)
	return env, err
}

func (c *Client) PatchSettings(ctx context.Context, patch model.SettingsPatch) (api.SettingsEnvelope, error) {
	var env api.SettingsEnvelope
	err := c.doJSON(ctx, http.MethodPatch, "/v1/settings", api.PatchSettingsRequest{Patch: patch}, &env)
	return env, err
}

func (c *Client) ListScheduled(ctx context.Context) (api.ScheduledEnvelope, error) {
	var env api.ScheduledEnvelope
	err := c.getJSON(ctx, "/v1/notifications", &env)
	return env, err
}

func (c *Client) RingState(ctx context.Context) (api.RingStateResponse, error) {
	var resp api.RingStateResponse
	err := c.getJSON(ctx, "/v1/ring", &resp)
	return resp, err
}

func (c *Client) Snooze(ctx context.Context) (api.RingStateResponse, error) {
	return c.ringAction(ctx, "snooze")
}

func (c *Client) Dismiss(ctx context.Context) (api.RingStateResponse, error) {
	return c.ringAction(ctx, "dismiss")
}

func (c *Client) StartMission(ctx context.Context) (api.RingStateResponse, error) {
	return c.ringAction(ctx, "mission/start")
}

func (c *Client) CompleteMission(ctx context.Context) (api.RingStateResponse, error) {
	return c.ringAction(ctx, "mission/complete")
}

func (c *Client) AbandonMission(ctx context.Context) (api.RingStateResponse, error) {
	return c.ringAction(ctx, "mission/abandon")
}

func (c *Client) MissionContent(ctx context.Context) (api.MissionEnvelope, error) {
	var env api.MissionEnvelope
	err := c.getJSON(ctx, "/v1/ring/mission", &env)
	return env, err
}

func (c *Client) ringAction(ctx context.Context, action string) (api.RingStateResponse, error) {
	var resp api.RingStateResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/ring/"+action, nil, &resp)
	return resp, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	payload, err := c.request(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method, path string, body any) ([]byte, error) {
	reqCtx := ctx
	if c.unaryTimeout > 0 {
		if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > c.unaryTimeout {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, c.unaryTimeout)
			defer cancel()
		}
	}
	var reqBody io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = buf
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
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
		if err := json.Unmarshal(payload, &er); err == nil && er.Error.Code != "" {
			return nil, &RequestError{
				StatusCode: resp.StatusCode,
				Code:       er.Error.Code,
				Message:    er.Error.Message,
			}
		}
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Code:       fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:    strings.TrimSpace(string(payload)),
		}
	}
	return payload, nil
}
