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
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/discovery"
	"github.com/mlmaid/mlmaid-core/pkg/helpers/command"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
	"github.com/rs/zerolog/log"
)

type procExit struct {
	err  error
	code *int
}

// wholeSeconds floors d to seconds.
func wholeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

func (m *Monitor) transition(sess *GameProcessSession, next State) {
	prev := sess.setState(next)
	metrics.RecordTransition(prev.String(), next.String())
	log.Debug().
		Str("key", sess.Key).
		Stringer("from", prev).
		Stringer("to", next).
		Msg("monitor: session state changed")
}

// run drives one session from spawn to finalization. It is the only
// goroutine that changes the session's state.
func (m *Monitor) run(sess *GameProcessSession, proc command.Process, t timings) {
	// Wait is not cancellable, so this goroutine lives as long as the
	// spawned process even if the monitor stops first.
	exitCh := make(chan procExit, 1)
	go func() {
		code, err := proc.Wait()
		exitCh <- procExit{code: code, err: err}
	}()

	var exit procExit
	select {
	case exit = <-exitCh:
	case <-m.ctx.Done():
		m.abandon(sess, "monitor stopped")
		return
	}

	if exit.err != nil {
		// an exit without a code as far as the session is concerned
		log.Warn().Err(exit.err).Str("key", sess.Key).Msg("monitor: spawned process reported an error")
		exit.code = nil
	}

	exitTime := m.clock.Now()
	lifetime := exitTime.Sub(sess.StartTime)

	if lifetime >= t.threshold {
		m.transition(sess, StateLongRunning)
		code := 0
		if exit.code != nil {
			code = *exit.code
		}
		m.finalize(sess, Outcome{
			EndTime:     exitTime,
			ExitCode:    &code,
			Reason:      ReasonLongRunning,
			DurationSec: wholeSeconds(lifetime),
			Completed:   true,
		})
		return
	}

	m.transition(sess, StateEarlyExit)
	sess.markLauncherStub()
	log.Info().
		Str("key", sess.Key).
		Dur("lifetime", lifetime).
		Stringer("mode", sess.Mode).
		Msg("monitor: spawned process exited early, treating it as a launcher")

	strategy := discovery.ForMode(sess.Mode, m.inspector)
	if strategy.Mode() == models.ModeFile {
		m.finalize(sess, Outcome{
			EndTime:  exitTime,
			ExitCode: exit.code,
			Reason:   ReasonLauncherOnly,
		})
		return
	}

	grace := m.clock.NewTimer(t.grace)
	select {
	case <-grace.Chan():
	case <-m.ctx.Done():
		grace.Stop()
		m.abandon(sess, "monitor stopped")
		return
	}

	m.transition(sess, StateDiscovering)
	pids := strategy.Discover(m.ctx, discovery.Target{
		GameID:       sess.GameID,
		WorkingDir:   sess.WorkingDir,
		ProcessNames: sess.ProcessNames,
	})
	if m.ctx.Err() != nil {
		m.abandon(sess, "monitor stopped")
		return
	}
	if len(pids) == 0 {
		log.Info().Str("key", sess.Key).Msg("monitor: no game processes found after launcher exit")
		m.finalize(sess, Outcome{
			EndTime:     exitTime,
			ExitCode:    exit.code,
			Reason:      ReasonLauncherOnly,
			DurationSec: wholeSeconds(lifetime),
		})
		return
	}

	sess.track(pids)
	m.transition(sess, StatePolling)
	log.Info().Str("key", sess.Key).Ints("pids", pids).Msg("monitor: tracking game processes")
	m.poll(sess, t)
}

// poll shrinks the tracked set every interval until it is empty or the
// ceiling is reached.
func (m *Monitor) poll(sess *GameProcessSession, t timings) {
	ticker := m.clock.NewTicker(t.poll)
	defer ticker.Stop()
	ceiling := m.clock.NewTimer(t.ceiling)
	defer ceiling.Stop()

	for {
		select {
		case <-m.ctx.Done():
			m.abandon(sess, "monitor stopped")
			return
		case <-ceiling.Chan():
			m.ceilingReached(sess, t.policy)
			return
		case <-ticker.Chan():
		}

		alive := m.inspector.Running(m.ctx, sess.TrackedPIDs())
		if m.ctx.Err() != nil {
			m.abandon(sess, "monitor stopped")
			return
		}
		if remaining := sess.retain(alive); remaining > 0 {
			log.Trace().Str("key", sess.Key).Int("remaining", remaining).Msg("monitor: game still running")
			continue
		}

		now := m.clock.Now()
		code := 0
		m.finalize(sess, Outcome{
			EndTime:     now,
			ExitCode:    &code,
			Reason:      ReasonProcessesExited,
			DurationSec: wholeSeconds(now.Sub(sess.StartTime)),
			Completed:   true,
		})
		return
	}
}

func (m *Monitor) ceilingReached(sess *GameProcessSession, policy string) {
	now := m.clock.Now()
	log.Warn().
		Str("key", sess.Key).
		Ints("pids", sess.TrackedPIDs()).
		Str("policy", policy).
		Msg("monitor: poll ceiling reached with processes still running")

	switch policy {
	case config.CeilingAbandon:
		m.abandon(sess, "poll ceiling reached")
	case config.CeilingComplete:
		m.finalize(sess, Outcome{
			EndTime:     now,
			Reason:      ReasonCeiling,
			DurationSec: wholeSeconds(now.Sub(sess.StartTime)),
			Completed:   true,
		})
	default:
		m.finalize(sess, Outcome{
			EndTime:     now,
			Reason:      ReasonCeiling,
			DurationSec: wholeSeconds(now.Sub(sess.StartTime)),
		})
	}
}
