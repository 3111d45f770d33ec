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
	"github.com/rs/zerolog/log"
)

//nolint:gocritic // single-use parameter in API handler
func HandleGamesAdd(env requests.RequestEnv) (any, error) {
	var params models.AddGameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are mapped to invalid params
	}
	log.Info().Str("gameId", params.GameID).Msg("received add game request")

	game := database.Game{
		GameID:       params.GameID,
		Title:        params.Title,
		WorkingDir:   params.WorkingDir,
		ProcessNames: params.ProcessNames,
		MonitorMode:  defaultMode(env),
	}
	if params.Mode != nil {
		game.MonitorMode = *params.Mode
	}

	if err := env.Database.MetaDB.AddGame(&game); err != nil {
		return nil, fmt.Errorf("failed to add game: %w", err)
	}

	stored, err := env.Database.MetaDB.GetGame(params.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back game: %w", err)
	}
	return gameResponse(&stored), nil
}

//nolint:gocritic // single-use parameter in API handler
func HandleGamesGet(env requests.RequestEnv) (any, error) {
	var params models.GameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are mapped to invalid params
	}

	game, err := env.Database.MetaDB.GetGame(params.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return gameResponse(&game), nil
}

func gameResponse(g *database.Game) models.GameResponse {
	return models.GameResponse{
		GameID:       g.GameID,
		Title:        g.Title,
		WorkingDir:   g.WorkingDir,
		ProcessNames: g.ProcessNames,
		Mode:         g.MonitorMode,
		TimePlayed:   g.TimePlayed,
		DateAdded:    g.DateAdded,
		LastPlayed:   g.LastPlayed,
	}
}
