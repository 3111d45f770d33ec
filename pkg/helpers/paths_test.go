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
	"os"
	"path/filepath"
	"testing"

	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindUserDir(t *testing.T) {
	t.Parallel()

	t.Run("portable_user_dir_next_to_binary", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, config.UserDir), 0o750))

		dir, ok := findUserDir(filepath.Join(root, "mlmaid"))
		assert.True(t, ok)
		assert.Equal(t, filepath.Join(root, config.UserDir), dir)
	})

	t.Run("no_user_dir", func(t *testing.T) {
		t.Parallel()

		_, ok := findUserDir(filepath.Join(t.TempDir(), "mlmaid"))
		assert.False(t, ok)
	})

	t.Run("user_is_a_file", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, config.UserDir), nil, 0o600))

		_, ok := findUserDir(filepath.Join(root, "mlmaid"))
		assert.False(t, ok)
	})
}

func TestLogDirUnderDataDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join(DataDir(), config.LogsDir), LogDir())
}
