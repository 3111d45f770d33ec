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

package methods

import (
	"fmt"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/api/models/requests"
	"github.com/mlmaid/mlmaid-core/pkg/api/validation"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/database/statsdb"
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleSessionsActive(env requests.RequestEnv) (any, error) {
	log.Debug().Msg("received active sessions request")

	sessions := []models.ActiveSessionResponse{}
	if env.Monitor != nil {
		sessions = append(sessions, env.Monitor.Active()...)
	}
	return models.ActiveSessionsResponse{Sessions: sessions}, nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleSessionsRecent(env requests.RequestEnv) (any, error) {
	log.Debug().Msg("received recent sessions request")

	limit := statsdb.DefaultRecentLimit
	if len(env.Params) > 0 {
		var params models.RecentSessionsParams
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, err //nolint:wrapcheck // validation errors are mapped to invalid params
		}
		if params.Limit != nil {
			limit = *params.Limit
		}
	}

	entries, err := env.Database.StatsDB.GetRecentSessions(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent sessions: %w", err)
	}

	resp := models.RecentSessionsResponse{
		Sessions: make([]models.SessionResponse, 0, len(entries)),
	}
	for i := range entries {
		resp.Sessions = append(resp.Sessions, sessionResponse(&entries[i]))
	}
	return resp, nil
}

func sessionResponse(e *database.SessionEntry) models.SessionResponse {
	return models.SessionResponse{
		ID:             e.DBID,
		GameID:         e.GameID,
		Title:          e.Title,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		DurationSec:    e.DurationSec,
		ExitCode:       e.ExitCode,
		LaunchMethod:   e.LaunchMethod,
		ExecutablePath: e.ExecutablePath,
		Completed:      e.Completed,
	}
}
