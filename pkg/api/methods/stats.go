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
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/api/models/requests"
	"github.com/rs/zerolog/log"
)

// now is swapped in tests.
var now = time.Now

//nolint:gocritic // single-use parameter in API handler
func HandleStatsOverall(env requests.RequestEnv) (any, error) {
	log.Debug().Msg("received overall stats request")

	stats, err := env.Database.StatsDB.GetOverallStats(now())
	if err != nil {
		return nil, fmt.Errorf("failed to get overall stats: %w", err)
	}

	return models.OverallStatsResponse{
		TotalPlayTime: stats.TotalSeconds,
		TotalSessions: stats.TotalSessions,
		GamesPlayed:   stats.GamesPlayed,
		TodayPlayTime: stats.TodaySeconds,
		WeekPlayTime:  stats.WeekSeconds,
		MonthPlayTime: stats.MonthSeconds,
	}, nil
}
