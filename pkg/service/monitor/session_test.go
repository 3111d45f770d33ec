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
	"sync"
	"testing"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(key string, start time.Time) *GameProcessSession {
	req := models.LaunchRequest{
		GameID:         "hollow-knight",
		ExecutablePath: "/games/hk/launcher",
		LaunchMethod:   "direct",
		WorkingDir:     "/games/hk",
		Mode:           models.ModeFolder,
	}
	return newSession(key, &req, start, 4100)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "spawned", StateSpawned.String())
	assert.Equal(t, "early_exit", StateEarlyExit.String())
	assert.Equal(t, "polling", StatePolling.String())
	assert.Equal(t, "finalized", StateFinalized.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestSessionTable_TakeOnce(t *testing.T) {
	t.Parallel()

	table := NewSessionTable()
	sess := testSession("hk_1", time.Now())
	require.NoError(t, table.Add(sess))
	require.ErrorIs(t, table.Add(sess), ErrDuplicateSession)

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := table.Take("hk_1"); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, taken)
	assert.Zero(t, table.Len())
	_, ok := table.Get("hk_1")
	assert.False(t, ok)
}

func TestSessionTable_ListOldestFirst(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	table := NewSessionTable()
	require.NoError(t, table.Add(testSession("c", base.Add(2*time.Minute))))
	require.NoError(t, table.Add(testSession("a", base)))
	require.NoError(t, table.Add(testSession("b", base)))

	keys := make([]string, 0, 3)
	for _, s := range table.List() {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestGameProcessSession_Retain(t *testing.T) {
	t.Parallel()

	sess := testSession("k", time.Now())
	sess.track([]int{10, 11, 12})

	// 99 was never tracked and must not be adopted
	assert.Equal(t, 2, sess.retain([]int{12, 10, 99}))
	assert.Equal(t, []int{10, 12}, sess.TrackedPIDs())

	assert.Zero(t, sess.retain(nil))
	assert.Empty(t, sess.TrackedPIDs())
}

func TestGameProcessSession_Snapshot(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sess := testSession("hk_1", start)
	sess.SessionID = 7
	sess.track([]int{300, 200})
	sess.markLauncherStub()
	prev := sess.setState(StatePolling)
	assert.Equal(t, StateSpawned, prev)

	snap := sess.Snapshot()
	assert.Equal(t, models.ActiveSessionResponse{
		StartTime:    start,
		Key:          "hk_1",
		GameID:       "hollow-knight",
		State:        "polling",
		TrackedPIDs:  []int{200, 300},
		SessionID:    7,
		Mode:         models.ModeFolder,
		LauncherStub: true,
	}, snap)
}

func TestGameProcessSession_DeliverClosesDone(t *testing.T) {
	t.Parallel()

	sess := testSession("k", time.Now())
	sess.deliver(Outcome{Reason: ReasonAbandoned})

	out, ok := <-sess.Done()
	require.True(t, ok)
	assert.Equal(t, ReasonAbandoned, out.Reason)
	_, ok = <-sess.Done()
	assert.False(t, ok)
}

func TestWholeSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), wholeSeconds(-time.Second))
	assert.Equal(t, int64(0), wholeSeconds(999*time.Millisecond))
	assert.Equal(t, int64(12), wholeSeconds(12*time.Second+900*time.Millisecond))
}

func TestSessionKey(t *testing.T) {
	t.Parallel()

	start := time.UnixMilli(1_700_000_000_123)
	k1 := sessionKey("celeste", start)
	k2 := sessionKey("celeste", start)
	assert.Regexp(t, `^celeste_1700000000123_[0-9a-f]{8}$`, k1)
	assert.NotEqual(t, k1, k2)
}
