// ML Maid Core
// Copyright (c) 2026 The ML Maid Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ML Maid Core.
//
// ML Maid Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ML Maid Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ML Maid Core.  If not, see <http://www.gnu.org/licenses/>.

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/testing/helpers"
	"github.com/olahol/melody"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon answers JSON-RPC requests from a per-method table and pushes
// notifications to connected clients. Methods with neither a result nor
// an error are never answered.
type fakeDaemon struct {
	srv     *helpers.WebSocketTestServer
	cfg     *config.Instance
	results map[string]any
	errs    map[string]*models.ErrorObject
	calls   []models.RequestObject
	mu      sync.Mutex
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	d := &fakeDaemon{
		results: map[string]any{},
		errs:    map[string]*models.ErrorObject{},
	}
	d.srv = helpers.NewWebSocketTestServer(t, d.handle)
	t.Cleanup(d.srv.Close)
	d.cfg = configForPort(t, d.srv.Port(t))
	return d
}

func configForPort(t *testing.T, port int) *config.Instance {
	t.Helper()
	return helpers.NewTestConfig(t, config.Values{
		Service: config.Service{APIPort: &port},
	})
}

// closedPort returns the port of a server that has already shut down.
func closedPort(t *testing.T) int {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

func (d *fakeDaemon) handle(s *melody.Session, msg []byte) {
	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil {
		return
	}

	d.mu.Lock()
	d.calls = append(d.calls, req)
	result, hasResult := d.results[req.Method]
	rpcErr := d.errs[req.Method]
	d.mu.Unlock()

	var out any
	switch {
	case rpcErr != nil:
		out = models.ResponseErrorObject{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	case hasResult:
		out = models.ResponseObject{JSONRPC: "2.0", ID: req.ID, Result: result}
	default:
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	_ = s.Write(data)
}

func (d *fakeDaemon) answer(method string, result any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results[method] = result
}

func (d *fakeDaemon) fail(method string, code int, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[method] = &models.ErrorObject{Code: code, Message: msg}
}

func (d *fakeDaemon) received() []models.RequestObject {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.RequestObject(nil), d.calls...)
}

// pushWhenConnected broadcasts the raw messages in order once a client is
// connected.
func (d *fakeDaemon) pushWhenConnected(t *testing.T, msgs ...any) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for d.srv.Melody.Len() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		for _, m := range msgs {
			data, err := json.Marshal(m)
			if err != nil {
				return
			}
			_ = d.srv.Melody.Broadcast(data)
		}
	}()
}

func notification(t *testing.T, method string, payload any) models.NotificationObject {
	t.Helper()
	params, err := json.Marshal(payload)
	require.NoError(t, err)
	return models.NotificationObject{JSONRPC: "2.0", Method: method, Params: params}
}

func TestLocalClient_SessionsRecent(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)

	start := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	d.answer(models.MethodSessionsRecent, models.RecentSessionsResponse{
		Sessions: []models.SessionResponse{{
			ID:             12,
			GameID:         "hollow-knight",
			Title:          "Hollow Knight",
			LaunchMethod:   "direct",
			ExecutablePath: "/games/hollow-knight/launcher.exe",
			StartTime:      start,
			EndTime:        &end,
			DurationSec:    2700,
			Completed:      true,
		}},
	})

	raw, err := LocalClient(context.Background(), d.cfg, models.MethodSessionsRecent, `{"limit":5}`)
	require.NoError(t, err)

	var resp models.RecentSessionsResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "hollow-knight", resp.Sessions[0].GameID)
	assert.Equal(t, int64(2700), resp.Sessions[0].DurationSec)
	require.NotNil(t, resp.Sessions[0].EndTime)
	assert.True(t, end.Equal(*resp.Sessions[0].EndTime))

	calls := d.received()
	require.Len(t, calls, 1)
	assert.Equal(t, "2.0", calls[0].JSONRPC)
	assert.JSONEq(t, `{"limit":5}`, string(calls[0].Params))
	assert.NotEmpty(t, calls[0].ID)
}

func TestLocalClient_StatsWithoutParams(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)
	d.answer(models.MethodStatsOverall, models.OverallStatsResponse{TotalPlayTime: 5400, TotalSessions: 3})

	raw, err := LocalClient(context.Background(), d.cfg, models.MethodStatsOverall, "")
	require.NoError(t, err)

	var stats models.OverallStatsResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &stats))
	assert.Equal(t, int64(5400), stats.TotalPlayTime)

	calls := d.received()
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Params)
}

func TestLocalClient_InvalidParamsNeverSent(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)

	_, err := LocalClient(context.Background(), d.cfg, models.MethodLaunch, `{"gameId":`)
	require.ErrorIs(t, err, ErrInvalidParams)
	assert.Empty(t, d.received())
}

func TestLocalClient_DaemonError(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)
	d.fail(models.MethodLaunch, -32602, "executable not found: /games/ghost.exe")

	_, err := LocalClient(context.Background(), d.cfg, models.MethodLaunch,
		`{"gameId":"ghost","executablePath":"/games/ghost.exe","launchMethod":"direct"}`)
	require.Error(t, err)
	assert.Equal(t, "executable not found: /games/ghost.exe", err.Error())
}

func TestLocalClient_Cancelled(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := LocalClient(ctx, d.cfg, models.MethodGamesGet, `{"gameId":"celeste"}`)
	require.ErrorIs(t, err, ErrRequestCancelled)
}

func TestLocalClient_NoDaemon(t *testing.T) {
	t.Parallel()
	cfg := configForPort(t, closedPort(t))

	_, err := LocalClient(context.Background(), cfg, models.MethodVersion, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to dial websocket")
}

func TestWaitSessionEnded_OverWebSocket(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)

	want := models.SessionEndedPayload{
		GameID:          "celeste",
		ExecutablePath:  "/games/celeste/Celeste.exe",
		SessionID:       31,
		SessionSeconds:  600,
		TotalTimePlayed: 7800,
		StartTime:       1773518400000,
		EndTime:         1773519000000,
	}
	// a launch notification and a response carrying an id come first and
	// must both be skipped
	d.pushWhenConnected(t,
		notification(t, models.NotificationGameLaunched, models.GameLaunchedPayload{GameID: "celeste", PID: 4100}),
		map[string]any{
			"jsonrpc": "2.0",
			"id":      "stale",
			"method":  models.NotificationSessionEnded,
			"params":  map[string]any{"gameId": "other"},
		},
		notification(t, models.NotificationSessionEnded, want),
	)

	got, err := WaitSessionEnded(context.Background(), NewLocalAPIClient(d.cfg), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestWaitNotifications_ReturnsMatchingMethod(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)

	d.pushWhenConnected(t,
		notification(t, models.NotificationGameLaunched, models.GameLaunchedPayload{GameID: "doom", SessionID: 4}),
	)

	method, params, err := WaitNotifications(context.Background(), 2*time.Second, d.cfg,
		models.NotificationSessionEnded, models.NotificationGameLaunched)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationGameLaunched, method)

	var payload models.GameLaunchedPayload
	require.NoError(t, json.Unmarshal([]byte(params), &payload))
	assert.Equal(t, int64(4), payload.SessionID)
}

func TestWaitNotification_Timeout(t *testing.T) {
	t.Parallel()
	d := newFakeDaemon(t)

	_, err := WaitNotification(context.Background(), 50*time.Millisecond, d.cfg, models.NotificationSessionEnded)
	require.ErrorIs(t, err, ErrRequestTimeout)
}

func TestLocalAPIClient_WrapsErrors(t *testing.T) {
	t.Parallel()
	api := NewLocalAPIClient(configForPort(t, closedPort(t)))

	_, err := api.Call(context.Background(), models.MethodVersion, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api call failed")

	_, err = api.WaitNotification(context.Background(), time.Second, models.NotificationSessionEnded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wait notification failed")
}

func TestIsServiceRunning(t *testing.T) {
	t.Parallel()

	d := newFakeDaemon(t)
	d.answer(models.MethodVersion, models.VersionResponse{Version: "1.0.0", Platform: "linux"})
	assert.True(t, IsServiceRunning(d.cfg))

	assert.False(t, IsServiceRunning(configForPort(t, closedPort(t))))
}

func TestWaitForAPI(t *testing.T) {
	t.Parallel()

	t.Run("daemon answering", func(t *testing.T) {
		t.Parallel()
		d := newFakeDaemon(t)
		d.answer(models.MethodVersion, models.VersionResponse{Version: "1.0.0"})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, WaitForAPI(ctx, d.cfg, 10*time.Millisecond))
	})

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()
		cfg := configForPort(t, closedPort(t))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		err := WaitForAPI(ctx, cfg, 10*time.Millisecond)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestAPIURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		listen string
		want   string
	}{
		{listen: "", want: "ws://127.0.0.1:7597/api"},
		{listen: "0.0.0.0:8000", want: "ws://127.0.0.1:8000/api"},
		{listen: "[::]:8000", want: "ws://127.0.0.1:8000/api"},
		{listen: "192.168.1.4:7597", want: "ws://192.168.1.4:7597/api"},
	}
	for _, tt := range tests {
		cfg := helpers.NewTestConfig(t, config.Values{
			Service: config.Service{APIListen: tt.listen},
		})
		assert.Equal(t, tt.want, apiURL(cfg), tt.listen)
	}
}
