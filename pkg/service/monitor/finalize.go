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
	"fmt"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/api/notifications"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
	"github.com/rs/zerolog/log"
)

// finalize commits the outcome of a session. Taking the session out of the
// table comes first and makes every later call for the same key a no-op.
// Write failures are logged; cleanup and delivery of the outcome always
// happen.
func (m *Monitor) finalize(sess *GameProcessSession, out Outcome) {
	if _, ok := m.table.Take(sess.Key); !ok {
		log.Debug().Str("key", sess.Key).Msg("monitor: session already finalized")
		return
	}
	defer m.release(sess, out)

	m.transition(sess, StateFinalized)
	log.Info().
		Str("key", sess.Key).
		Str("gameId", sess.GameID).
		Int64("sessionId", sess.SessionID).
		Int64("duration", out.DurationSec).
		Bool("completed", out.Completed).
		Str("reason", out.Reason).
		Msg("monitor: session ended")

	err := m.sessions.UpdateSessionOnExit(
		sess.SessionID, out.EndTime, out.DurationSec, out.ExitCode, out.Completed,
	)
	if err != nil {
		log.Error().Err(err).Int64("sessionId", sess.SessionID).Msg("monitor: failed to update session")
		return
	}

	if !out.Completed {
		return
	}

	total, err := m.addPlaytime(sess.GameID, out)
	switch {
	case errors.Is(err, database.ErrGameNotFound):
		log.Debug().Str("gameId", sess.GameID).Msg("monitor: game not in library, playtime not recorded")
	case err != nil:
		log.Error().Err(err).Str("gameId", sess.GameID).Msg("monitor: failed to update playtime")
		return
	}

	notifications.SessionEnded(m.notify, models.SessionEndedPayload{
		GameID:          sess.GameID,
		ExecutablePath:  sess.ExecutablePath,
		SessionID:       sess.SessionID,
		SessionSeconds:  out.DurationSec,
		TotalTimePlayed: total,
		StartTime:       sess.StartTime.UnixMilli(),
		EndTime:         out.EndTime.UnixMilli(),
	})
}

// addPlaytime adds the session duration to the game's total and returns the
// new total. Sessions of the same game may end together.
func (m *Monitor) addPlaytime(gameID string, out Outcome) (int64, error) {
	m.playtimeMu.Lock()
	defer m.playtimeMu.Unlock()

	played, err := m.games.Playtime(gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to read playtime: %w", err)
	}
	total := played + out.DurationSec
	if err := m.games.SetPlaytimeAndLastPlayed(gameID, total, out.EndTime); err != nil {
		return total, fmt.Errorf("failed to store playtime: %w", err)
	}
	return total, nil
}

// abandon drops the in-memory session without writing anything. The
// persisted row keeps a null end time.
func (m *Monitor) abandon(sess *GameProcessSession, why string) {
	if _, ok := m.table.Take(sess.Key); !ok {
		return
	}
	log.Warn().
		Str("key", sess.Key).
		Int64("sessionId", sess.SessionID).
		Str("why", why).
		Msg("monitor: session abandoned, row left open")
	m.release(sess, Outcome{EndTime: m.clock.Now(), Reason: ReasonAbandoned})
}

func (m *Monitor) release(sess *GameProcessSession, out Outcome) {
	metrics.RecordFinalized(sess.Mode.String(), out.Reason, out.Completed, out.DurationSec)
	metrics.SetActiveSessions(m.table.Len())
	sess.deliver(out)
}
