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

// Package monitor launches game executables and follows them until the play
// session ends, whatever launcher chain the game uses.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/api/notifications"
	"github.com/mlmaid/mlmaid-core/pkg/api/validation"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/helpers/command"
	"github.com/mlmaid/mlmaid-core/pkg/helpers/syncutil"
	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrInvalidRequest     = errors.New("invalid launch request")
	ErrExecutableNotFound = errors.New("executable not found")
	ErrSpawnFailed        = errors.New("failed to spawn executable")
	ErrPersistFailed      = errors.New("failed to persist session")
)

// timings are read from config once per launch so a reload never changes
// the rules of a running session.
type timings struct {
	policy    string
	threshold time.Duration
	grace     time.Duration
	poll      time.Duration
	ceiling   time.Duration
}

func timingsFrom(cfg *config.Instance) timings {
	return timings{
		threshold: cfg.LongRunningThreshold(),
		grace:     cfg.GraceDelay(),
		poll:      cfg.PollInterval(),
		ceiling:   cfg.PollCeiling(),
		policy:    cfg.CeilingPolicy(),
	}
}

// Monitor owns the launch flow and one goroutine per active session.
type Monitor struct {
	clock     clockwork.Clock
	ctx       context.Context
	fs        afero.Fs
	cfg       *config.Instance
	sessions  database.SessionStore
	games     database.GameStore
	inspector procinspect.Inspector
	spawner   command.Spawner
	table     *SessionTable
	cancel    context.CancelFunc
	notify    chan<- models.Notification
	wg        sync.WaitGroup
	// serializes the read-modify-write of game playtime between sessions
	playtimeMu syncutil.Mutex
	// guards stopped and wg.Add against Stop
	lifeMu  syncutil.Mutex
	stopped bool
}

type Option func(*Monitor)

func WithClock(clock clockwork.Clock) Option {
	return func(m *Monitor) { m.clock = clock }
}

func WithSpawner(spawner command.Spawner) Option {
	return func(m *Monitor) { m.spawner = spawner }
}

// WithFs sets the filesystem used to check executables and working
// directories before spawning.
func WithFs(fs afero.Fs) Option {
	return func(m *Monitor) { m.fs = fs }
}

func WithSessionTable(table *SessionTable) Option {
	return func(m *Monitor) { m.table = table }
}

func NewMonitor(
	cfg *config.Instance,
	sessions database.SessionStore,
	games database.GameStore,
	inspector procinspect.Inspector,
	ns chan<- models.Notification,
	opts ...Option,
) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		cfg:       cfg,
		sessions:  sessions,
		games:     games,
		inspector: instrumented{inner: inspector},
		notify:    ns,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.spawner == nil {
		m.spawner = &command.RealSpawner{}
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.table == nil {
		m.table = NewSessionTable()
	}
	return m
}

// LaunchResult is returned once the game is running and its session row
// exists. Done yields the session outcome when monitoring ends.
type LaunchResult struct {
	Done       <-chan Outcome
	SessionKey string
	SessionID  int64
	PID        int
}

// Launch validates req, spawns the executable and starts monitoring it.
// Errors are returned only for the synchronous part: nothing is persisted
// unless the launch succeeds.
func (m *Monitor) Launch(req models.LaunchRequest) (*LaunchResult, error) {
	if err := m.reserve(); err != nil {
		return nil, err
	}
	handedOff := false
	defer func() {
		if !handedOff {
			m.wg.Done()
		}
	}()

	if err := validation.DefaultValidator.Validate(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req, err := resolvePaths(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := m.checkPaths(&req); err != nil {
		return nil, err
	}

	title, err := m.games.GameTitle(req.GameID)
	if err != nil {
		log.Warn().Err(err).Str("gameId", req.GameID).Msg("monitor: failed to resolve game title")
		title = database.UnknownGameTitle
	}

	proc, err := m.spawner.Spawn(command.SpawnOptions{Dir: req.WorkingDir}, req.ExecutablePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}
	start := m.clock.Now()

	entry := &database.SessionEntry{
		GameID:         req.GameID,
		Title:          title,
		StartTime:      start,
		LaunchMethod:   req.LaunchMethod,
		ExecutablePath: req.ExecutablePath,
		CalendarFields: database.NewCalendarFields(start),
	}
	sessionID, err := m.sessions.InsertSession(entry)
	if err != nil {
		if killErr := proc.Kill(); killErr != nil {
			log.Warn().Err(killErr).Int("pid", proc.Pid()).Msg("monitor: failed to kill unrecorded process")
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	sess := newSession(sessionKey(req.GameID, start), &req, start, proc.Pid())
	sess.SessionID = sessionID
	if err := m.table.Add(sess); err != nil {
		// keys carry a random suffix; a clash means the table is shared
		// with something misbehaving
		if killErr := proc.Kill(); killErr != nil {
			log.Warn().Err(killErr).Int("pid", proc.Pid()).Msg("monitor: failed to kill unregistered process")
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	metrics.IncLaunch(req.Mode.String())
	metrics.SetActiveSessions(m.table.Len())
	log.Info().
		Str("key", sess.Key).
		Str("gameId", req.GameID).
		Int64("sessionId", sessionID).
		Int("pid", sess.PID).
		Stringer("mode", req.Mode).
		Msg("monitor: game launched")

	notifications.GameLaunched(m.notify, models.GameLaunchedPayload{
		GameID:         req.GameID,
		SessionKey:     sess.Key,
		ExecutablePath: req.ExecutablePath,
		LaunchMethod:   req.LaunchMethod,
		SessionID:      sessionID,
		PID:            sess.PID,
		StartTime:      start.UnixMilli(),
	})

	t := timingsFrom(m.cfg)
	handedOff = true
	go func() {
		defer m.wg.Done()
		m.run(sess, proc, t)
	}()

	return &LaunchResult{
		SessionKey: sess.Key,
		SessionID:  sessionID,
		PID:        sess.PID,
		Done:       sess.Done(),
	}, nil
}

// reserve counts a launch in progress so Stop waits for it. It fails once
// Stop has begun.
func (m *Monitor) reserve() error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	if m.stopped {
		return fmt.Errorf("monitor stopped: %w", context.Canceled)
	}
	m.wg.Add(1)
	return nil
}

// resolvePaths makes the executable and working directory absolute against
// the current directory. Process images are always reported with absolute
// paths, so folder discovery only works on absolute directories, and the
// executable checked before spawning must be the one that gets spawned.
func resolvePaths(req models.LaunchRequest) (models.LaunchRequest, error) {
	exe, err := filepath.Abs(req.ExecutablePath)
	if err != nil {
		return req, fmt.Errorf("failed to resolve executable path: %w", err)
	}
	req.ExecutablePath = exe
	req = req.Normalized()
	dir, err := filepath.Abs(req.WorkingDir)
	if err != nil {
		return req, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	req.WorkingDir = dir
	return req, nil
}

func (m *Monitor) checkPaths(req *models.LaunchRequest) error {
	info, err := m.fs.Stat(req.ExecutablePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExecutableNotFound, req.ExecutablePath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrExecutableNotFound, req.ExecutablePath)
	}

	dir, err := m.fs.Stat(req.WorkingDir)
	if err != nil || !dir.IsDir() {
		return fmt.Errorf("%w: working directory %q is not usable", ErrInvalidRequest, req.WorkingDir)
	}
	return nil
}

// Active returns a snapshot of every session still being monitored.
func (m *Monitor) Active() []models.ActiveSessionResponse {
	list := m.table.List()
	out := make([]models.ActiveSessionResponse, 0, len(list))
	for _, s := range list {
		out = append(out, s.Snapshot())
	}
	return out
}

// Stop cancels all session goroutines and waits for them. Sessions that
// were still running are abandoned: their rows stay open.
func (m *Monitor) Stop() {
	m.lifeMu.Lock()
	m.stopped = true
	m.lifeMu.Unlock()
	m.cancel()
	m.wg.Wait()
}

func sessionKey(gameID string, start time.Time) string {
	return gameID + "_" + strconv.FormatInt(start.UnixMilli(), 10) + "_" + uuid.NewString()[:8]
}
