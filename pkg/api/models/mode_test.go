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
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonitoringMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    MonitoringMode
		wantErr bool
	}{
		{input: "file", want: ModeFile},
		{input: "FOLDER", want: ModeFolder},
		{input: " Process ", want: ModeProcess},
		{input: "window", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseMonitoringMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonitoringMode_PersistedValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, int(ModeFile))
	assert.Equal(t, 1, int(ModeFolder))
	assert.Equal(t, 2, int(ModeProcess))
	assert.Equal(t, ModeFolder, DefaultMode)
	assert.False(t, MonitoringMode(3).Valid())
	assert.Equal(t, "mode(3)", MonitoringMode(3).String())
}

func TestLaunchParams_ModeAsText(t *testing.T) {
	t.Parallel()

	var p LaunchParams
	require.NoError(t, json.Unmarshal([]byte(`{"gameId":"g1","mode":"process"}`), &p))
	require.NotNil(t, p.Mode)
	assert.Equal(t, ModeProcess, *p.Mode)

	err := json.Unmarshal([]byte(`{"gameId":"g1","mode":"window"}`), &p)
	require.Error(t, err)
}

func TestLaunchRequest_Normalized(t *testing.T) {
	t.Parallel()

	names := []string{"game.exe"}
	req := LaunchRequest{
		GameID:         "g1",
		ExecutablePath: filepath.Join("games", "hk", "launcher"),
		ProcessNames:   names,
	}

	got := req.Normalized()
	assert.Equal(t, filepath.Join("games", "hk"), got.WorkingDir)

	got.ProcessNames[0] = "other"
	assert.Equal(t, "game.exe", names[0])

	req.WorkingDir = "/elsewhere"
	assert.Equal(t, "/elsewhere", req.Normalized().WorkingDir)
}
