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

//go:build !windows

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Run(t *testing.T) {
	t.Parallel()

	executor := &RealExecutor{}

	t.Run("executes_successful_command", func(t *testing.T) {
		t.Parallel()

		err := executor.Run(context.Background(), "true")

		assert.NoError(t, err)
	})

	t.Run("returns_error_for_failed_command", func(t *testing.T) {
		t.Parallel()

		err := executor.Run(context.Background(), "false")

		assert.Error(t, err)
	})

	t.Run("returns_error_for_nonexistent_command", func(t *testing.T) {
		t.Parallel()

		err := executor.Run(context.Background(), "nonexistent_command_that_should_not_exist_12345")

		require.Error(t, err)
	})
}

func TestRealExecutor_Output(t *testing.T) {
	t.Parallel()

	executor := &RealExecutor{}

	out, err := executor.Output(context.Background(), "echo", "12|/games/a|a")
	require.NoError(t, err)
	assert.Equal(t, "12|/games/a|a\n", string(out))
}

func TestRealSpawner_Spawn(t *testing.T) {
	t.Parallel()

	spawner := &RealSpawner{}

	t.Run("reports_zero_exit_code", func(t *testing.T) {
		t.Parallel()

		proc, err := spawner.Spawn(SpawnOptions{}, "true")
		require.NoError(t, err)
		assert.Positive(t, proc.Pid())

		code, err := proc.Wait()
		require.NoError(t, err)
		require.NotNil(t, code)
		assert.Equal(t, 0, *code)
	})

	t.Run("reports_non_zero_exit_code_without_error", func(t *testing.T) {
		t.Parallel()

		proc, err := spawner.Spawn(SpawnOptions{}, "sh", "-c", "exit 3")
		require.NoError(t, err)

		code, err := proc.Wait()
		require.NoError(t, err)
		require.NotNil(t, code)
		assert.Equal(t, 3, *code)
	})

	t.Run("runs_in_working_directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		proc, err := spawner.Spawn(SpawnOptions{Dir: dir}, "sh", "-c", `test "$(pwd -P)" = "$(cd "$0" && pwd -P)"`, dir)
		require.NoError(t, err)

		code, err := proc.Wait()
		require.NoError(t, err)
		require.NotNil(t, code)
		assert.Equal(t, 0, *code)
	})

	t.Run("killed_process_has_no_exit_code", func(t *testing.T) {
		t.Parallel()

		proc, err := spawner.Spawn(SpawnOptions{}, "sleep", "30")
		require.NoError(t, err)
		require.NoError(t, proc.Kill())

		code, err := proc.Wait()
		require.NoError(t, err)
		assert.Nil(t, code)
	})

	t.Run("returns_error_for_nonexistent_command", func(t *testing.T) {
		t.Parallel()

		_, err := spawner.Spawn(SpawnOptions{}, "nonexistent_command_that_should_not_exist_12345")

		require.Error(t, err)
	})
}
