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

package models

// LaunchParams are the params of the launch method. Monitoring settings
// left out are taken from the game's library entry.
type LaunchParams struct {
	WorkingDir     *string         `json:"workingDir"`
	Mode           *MonitoringMode `json:"mode"`
	GameID         string          `json:"gameId" validate:"required"`
	ExecutablePath string          `json:"executablePath" validate:"required"`
	LaunchMethod   string          `json:"launchMethod" validate:"required"`
	ProcessNames   []string        `json:"processNames" validate:"omitempty,dive,required"`
}

type RecentSessionsParams struct {
	Limit *int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// AddGameParams add a game to the library or update its monitoring
// settings.
type AddGameParams struct {
	Mode         *MonitoringMode `json:"mode" validate:"omitempty,mode"`
	GameID       string          `json:"gameId" validate:"required"`
	Title        string          `json:"title" validate:"required"`
	WorkingDir   string          `json:"workingDir"`
	ProcessNames []string        `json:"processNames" validate:"omitempty,dive,required"`
}

type GameParams struct {
	GameID string `json:"gameId" validate:"required"`
}
