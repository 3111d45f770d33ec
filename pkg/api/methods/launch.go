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
	"errors"
	"fmt"
	"slices"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/api/models/requests"
	"github.com/mlmaid/mlmaid-core/pkg/api/validation"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/rs/zerolog/log"
)

var ErrMonitorUnavailable = errors.New("session monitor not running")

//nolint:gocritic // single-use parameter in API handler
func HandleLaunch(env requests.RequestEnv) (any, error) {
	var params models.LaunchParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err //nolint:wrapcheck // validation errors are mapped to invalid params
	}
	log.Info().Str("gameId", params.GameID).Msg("received launch request")

	if env.Monitor == nil {
		return nil, ErrMonitorUnavailable
	}

	req, err := resolveLaunchRequest(env, &params)
	if err != nil {
		return nil, err
	}

	res, err := env.Monitor.Launch(req)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", params.GameID, err)
	}

	return models.LaunchResponse{
		SessionKey: res.SessionKey,
		SessionID:  res.SessionID,
		PID:        res.PID,
	}, nil
}

// resolveLaunchRequest starts from the game's library entry, or the
// configured default mode for games not in the library, and applies the
// overrides given in params.
//
//nolint:gocritic // single-use parameter in API handler
func resolveLaunchRequest(env requests.RequestEnv, params *models.LaunchParams) (models.LaunchRequest, error) {
	req := models.LaunchRequest{
		GameID:         params.GameID,
		ExecutablePath: params.ExecutablePath,
		LaunchMethod:   params.LaunchMethod,
		Mode:           defaultMode(env),
	}

	if env.Database != nil && env.Database.MetaDB != nil {
		game, err := env.Database.MetaDB.GetGame(params.GameID)
		switch {
		case errors.Is(err, database.ErrGameNotFound):
			log.Debug().Str("gameId", params.GameID).Msg("game not in library, using default monitoring")
		case err != nil:
			return req, fmt.Errorf("failed to look up game: %w", err)
		default:
			req = game.LaunchRequest(params.ExecutablePath, params.LaunchMethod)
		}
	}

	if params.WorkingDir != nil {
		req.WorkingDir = *params.WorkingDir
	}
	if params.Mode != nil {
		req.Mode = *params.Mode
	}
	if len(params.ProcessNames) > 0 {
		req.ProcessNames = slices.Clone(params.ProcessNames)
	}
	return req, nil
}

//nolint:gocritic // single-use parameter in API handler
func defaultMode(env requests.RequestEnv) models.MonitoringMode {
	if env.Config == nil {
		return models.DefaultMode
	}
	mode, err := models.ParseMonitoringMode(env.Config.DefaultMonitorMode())
	if err != nil {
		log.Warn().Err(err).Msg("invalid default monitoring mode in config")
		return models.DefaultMode
	}
	return mode
}
