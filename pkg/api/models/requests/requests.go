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

package requests

import (
	"context"
	"encoding/json"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/service/monitor"
)

// SessionMonitor is the part of the monitor the API drives.
type SessionMonitor interface {
	Launch(req models.LaunchRequest) (*monitor.LaunchResult, error)
	Active() []models.ActiveSessionResponse
}

type RequestEnv struct {
	Context  context.Context
	Config   *config.Instance
	Database *database.Database
	Monitor  SessionMonitor
	Params   json.RawMessage
	ID       json.RawMessage
	IsLocal  bool
}
