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

package service

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/client"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/service/monitor"
	"github.com/mlmaid/mlmaid-core/pkg/testing/helpers"
	"github.com/mlmaid/mlmaid-core/pkg/testing/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert // tcp listener
	require.NoError(t, ln.Close())
	return port
}

func writeExe(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Celeste")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	exe := filepath.Join(dir, "Celeste.exe")
	require.NoError(t, os.WriteFile(exe, []byte("MZ"), 0o600))
	return exe
}

func waitReady(t *testing.T, svc *Service) {
	t.Helper()
	select {
	case <-svc.Ready():
	case <-svc.Done():
		t.Fatalf("service stopped before ready: %v", svc.Err())
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for service")
	}
}

func TestServiceLaunchAndQuery(t *testing.T) {
	t.Parallel()

	port := freePort(t)
	cfg := helpers.NewTestConfig(t, config.Values{
		Monitor: config.Monitor{LongRunningThreshold: "1ms"},
		Service: config.Service{APIPort: &port},
	})
	spawner := mocks.NewFakeSpawner(4000)

	svc, err := Start(cfg, Options{
		DataDir:    t.TempDir(),
		Inspector:  mocks.NewFakeInspector(),
		Spawner:    spawner,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Stop() })
	waitReady(t, svc)

	require.NoError(t, svc.Database().MetaDB.AddGame(&database.Game{
		GameID:      "celeste",
		Title:       "Celeste",
		MonitorMode: models.ModeFolder,
	}))

	res, err := svc.Monitor().Launch(models.LaunchRequest{
		GameID:         "celeste",
		ExecutablePath: writeExe(t),
		LaunchMethod:   "direct",
		Mode:           models.ModeFolder,
	})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	spawner.Last().Exit(0)

	var outcome monitor.Outcome
	select {
	case outcome = <-res.Done:
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finalize")
	}
	assert.True(t, outcome.Completed)
	assert.Equal(t, monitor.ReasonLongRunning, outcome.Reason)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	raw, err := client.LocalClient(ctx, cfg, models.MethodSessionsRecent, "")
	require.NoError(t, err)

	var recent models.RecentSessionsResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &recent))
	require.Len(t, recent.Sessions, 1)
	assert.Equal(t, "Celeste", recent.Sessions[0].Title)
	assert.Equal(t, res.SessionID, recent.Sessions[0].ID)
	assert.True(t, recent.Sessions[0].Completed)

	game, err := svc.Database().MetaDB.GetGame("celeste")
	require.NoError(t, err)
	assert.Equal(t, outcome.DurationSec, game.TimePlayed)

	require.NoError(t, svc.Stop())
	select {
	case <-svc.Done():
	default:
		t.Fatal("done not closed after stop")
	}
}

func TestServiceStopAbandonsActiveSessions(t *testing.T) {
	t.Parallel()

	cfg := helpers.NewTestConfig(t, config.Values{})
	spawner := mocks.NewFakeSpawner(5000)

	svc, err := Start(cfg, Options{
		DataDir:    t.TempDir(),
		Inspector:  mocks.NewFakeInspector(),
		Spawner:    spawner,
		Registerer: prometheus.NewRegistry(),
		NoAPI:      true,
	})
	require.NoError(t, err)
	waitReady(t, svc)

	res, err := svc.Monitor().Launch(models.LaunchRequest{
		GameID:         "celeste",
		ExecutablePath: writeExe(t),
		LaunchMethod:   "direct",
		Mode:           models.ModeProcess,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Stop())

	outcome := <-res.Done
	assert.Equal(t, monitor.ReasonAbandoned, outcome.Reason)
	assert.False(t, outcome.Completed)
}

func TestServiceStopsWhenAPICannotListen(t *testing.T) {
	t.Parallel()

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert // tcp listener

	cfg := helpers.NewTestConfig(t, config.Values{
		Service: config.Service{APIPort: &port},
	})
	svc, err := Start(cfg, Options{
		DataDir:    t.TempDir(),
		Inspector:  mocks.NewFakeInspector(),
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	select {
	case <-svc.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("service kept running without an API listener")
	}
	require.Error(t, svc.Err())
}
