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

package monitor

import (
	"errors"
	"slices"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/helpers/syncutil"
)

var ErrDuplicateSession = errors.New("session key already registered")

// GameProcessSession is the in-memory state of one launch. The identifying
// fields are fixed at launch; the tracked PID set, state and launcher flag
// are mutated only by the session's own goroutine and read under mu by API
// snapshots.
type GameProcessSession struct {
	StartTime      time.Time
	done           chan Outcome
	tracked        map[int]struct{}
	Key            string
	GameID         string
	ExecutablePath string
	WorkingDir     string
	LaunchMethod   string
	ProcessNames   []string
	SessionID      int64
	PID            int
	Mode           models.MonitoringMode
	state          State
	mu             syncutil.Mutex
	launcherStub   bool
}

func newSession(key string, req *models.LaunchRequest, start time.Time, pid int) *GameProcessSession {
	return &GameProcessSession{
		Key:            key,
		GameID:         req.GameID,
		StartTime:      start,
		ExecutablePath: req.ExecutablePath,
		WorkingDir:     req.WorkingDir,
		LaunchMethod:   req.LaunchMethod,
		ProcessNames:   slices.Clone(req.ProcessNames),
		Mode:           req.Mode,
		PID:            pid,
		state:          StateSpawned,
		tracked:        make(map[int]struct{}),
		done:           make(chan Outcome, 1),
	}
}

func (s *GameProcessSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState moves to next and returns the previous state.
func (s *GameProcessSession) setState(next State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = next
	return prev
}

func (s *GameProcessSession) markLauncherStub() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launcherStub = true
}

func (s *GameProcessSession) LauncherStub() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launcherStub
}

// TrackedPIDs returns the tracked set in ascending order.
func (s *GameProcessSession) TrackedPIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := make([]int, 0, len(s.tracked))
	for pid := range s.tracked {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

func (s *GameProcessSession) track(pids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range pids {
		s.tracked[pid] = struct{}{}
	}
}

// retain shrinks the tracked set to the PIDs in alive and returns its new
// size. PIDs in alive that were not tracked are ignored.
func (s *GameProcessSession) retain(alive []int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make(map[int]struct{}, len(alive))
	for _, pid := range alive {
		if _, ok := s.tracked[pid]; ok {
			keep[pid] = struct{}{}
		}
	}
	s.tracked = keep
	return len(keep)
}

// deliver publishes the outcome to Done. It must be called at most once,
// which the session table guarantees.
func (s *GameProcessSession) deliver(out Outcome) {
	s.done <- out
	close(s.done)
}

// Done receives the session outcome once, then is closed.
func (s *GameProcessSession) Done() <-chan Outcome {
	return s.done
}

func (s *GameProcessSession) Snapshot() models.ActiveSessionResponse {
	pids := s.TrackedPIDs()
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ActiveSessionResponse{
		Key:          s.Key,
		GameID:       s.GameID,
		SessionID:    s.SessionID,
		StartTime:    s.StartTime,
		State:        s.state.String(),
		Mode:         s.Mode,
		TrackedPIDs:  pids,
		LauncherStub: s.launcherStub,
	}
}

// SessionTable holds the active sessions keyed by session key. Removing a
// session from the table is the gate that makes finalization happen at most
// once.
type SessionTable struct {
	sessions map[string]*GameProcessSession
	mu       syncutil.RWMutex
}

func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]*GameProcessSession)}
}

func (t *SessionTable) Add(s *GameProcessSession) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.sessions[s.Key]; exists {
		return ErrDuplicateSession
	}
	t.sessions[s.Key] = s
	return nil
}

// Take removes and returns the session for key. Only the first caller for a
// key gets ok == true.
func (t *SessionTable) Take(key string) (*GameProcessSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[key]
	if ok {
		delete(t.sessions, key)
	}
	return s, ok
}

func (t *SessionTable) Get(key string) (*GameProcessSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[key]
	return s, ok
}

func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// List returns the active sessions, oldest first.
func (t *SessionTable) List() []*GameProcessSession {
	t.mu.RLock()
	list := make([]*GameProcessSession, 0, len(t.sessions))
	for _, s := range t.sessions {
		list = append(list, s)
	}
	t.mu.RUnlock()

	slices.SortFunc(list, func(a, b *GameProcessSession) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return compareStrings(a.Key, b.Key)
	})
	return list
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
