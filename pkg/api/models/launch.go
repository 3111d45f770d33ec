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

import (
	"path/filepath"
	"slices"
)

// LaunchRequest describes one launch of a game executable.
type LaunchRequest struct {
	GameID         string         `json:"gameId" validate:"required"`
	ExecutablePath string         `json:"executablePath" validate:"required"`
	LaunchMethod   string         `json:"launchMethod" validate:"required"`
	WorkingDir     string         `json:"workingDir,omitempty"`
	ProcessNames   []string       `json:"processNames,omitempty" validate:"omitempty,dive,required"`
	Mode           MonitoringMode `json:"mode" validate:"mode"`
}

// Normalized returns a copy with an empty working directory resolved to the
// executable's directory and process names copied.
func (r LaunchRequest) Normalized() LaunchRequest {
	out := r
	if out.WorkingDir == "" && out.ExecutablePath != "" {
		out.WorkingDir = filepath.Dir(out.ExecutablePath)
	}
	out.ProcessNames = slices.Clone(r.ProcessNames)
	return out
}
