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

package helpers

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGameInstall(t *testing.T) {
	t.Parallel()

	h := NewMemoryFS()
	dir := filepath.FromSlash("/games/hollow")
	exe, err := h.CreateGameInstall(dir, "hollow_knight.exe", filepath.FromSlash("bin/crash_handler.exe"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "hollow_knight.exe"), exe)
	assert.True(t, h.FileExists(exe))
	assert.True(t, h.FileExists(filepath.Join(dir, "bin", "crash_handler.exe")))
	assert.False(t, h.FileExists(filepath.Join(dir, "missing.exe")))
}

func TestNewTestConfig(t *testing.T) {
	t.Parallel()

	cfg := NewTestConfig(t, config.Values{
		Monitor: config.Monitor{PollInterval: "250ms"},
	})
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, config.DefaultGraceDelay, cfg.GraceDelay())
}
