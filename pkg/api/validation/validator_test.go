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

package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLaunchRequest(t *testing.T) {
	t.Parallel()

	base := models.LaunchRequest{
		GameID:         "g1",
		ExecutablePath: "/games/hk/hk.exe",
		LaunchMethod:   "direct",
		Mode:           models.ModeFolder,
	}

	tests := []struct {
		mutate    func(r *models.LaunchRequest)
		name      string
		wantMsg   string
		wantError bool
	}{
		{name: "folder without working dir is valid", mutate: func(*models.LaunchRequest) {}},
		{
			name:   "file mode needs only the executable",
			mutate: func(r *models.LaunchRequest) { r.Mode = models.ModeFile },
		},
		{
			name: "process mode with names",
			mutate: func(r *models.LaunchRequest) {
				r.Mode = models.ModeProcess
				r.ProcessNames = []string{"hk.exe"}
			},
		},
		{
			name:      "process mode without names",
			mutate:    func(r *models.LaunchRequest) { r.Mode = models.ModeProcess },
			wantError: true,
			wantMsg:   "process mode requires at least one process name",
		},
		{
			name: "process mode with a blank name",
			mutate: func(r *models.LaunchRequest) {
				r.Mode = models.ModeProcess
				r.ProcessNames = []string{""}
			},
			wantError: true,
			wantMsg:   "is required",
		},
		{
			name: "process mode with only whitespace names",
			mutate: func(r *models.LaunchRequest) {
				r.Mode = models.ModeProcess
				r.ProcessNames = []string{" ", "\t", ".exe"}
			},
			wantError: true,
			wantMsg:   "process mode requires at least one process name",
		},
		{
			name:      "missing game id",
			mutate:    func(r *models.LaunchRequest) { r.GameID = "" },
			wantError: true,
			wantMsg:   "gameid is required",
		},
		{
			name:      "missing launch method",
			mutate:    func(r *models.LaunchRequest) { r.LaunchMethod = "" },
			wantError: true,
			wantMsg:   "launchmethod is required",
		},
		{
			name:      "unknown mode",
			mutate:    func(r *models.LaunchRequest) { r.Mode = models.MonitoringMode(7) },
			wantError: true,
			wantMsg:   "is not one of",
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := base
			tt.mutate(&req)
			err := v.Validate(req)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *Error
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateAndUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("missing params", func(t *testing.T) {
		t.Parallel()
		var p models.RecentSessionsParams
		err := ValidateAndUnmarshal(nil, &p)
		assert.ErrorIs(t, err, ErrMissingParams)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		var p models.RecentSessionsParams
		err := ValidateAndUnmarshal(json.RawMessage(`{"limit":`), &p)
		assert.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("limit out of range", func(t *testing.T) {
		t.Parallel()
		var p models.RecentSessionsParams
		err := ValidateAndUnmarshal(json.RawMessage(`{"limit":500}`), &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit must be at most 100")
		assert.False(t, errors.Is(err, ErrInvalidParams))
	})

	t.Run("launch params need game id", func(t *testing.T) {
		t.Parallel()
		var p models.LaunchParams
		err := ValidateAndUnmarshal(json.RawMessage(`{"mode":"file"}`), &p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gameid is required")
	})

	t.Run("valid launch params", func(t *testing.T) {
		t.Parallel()
		var p models.LaunchParams
		err := ValidateAndUnmarshal(json.RawMessage(`{"gameId":"g1"}`), &p)
		require.NoError(t, err)
		assert.Equal(t, "g1", p.GameID)
		assert.Nil(t, p.Mode)
	})
}
