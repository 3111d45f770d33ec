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

// Package command provides an abstraction over exec.Command for testability.
package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Executor runs short-lived system commands, such as the administrative
// shell queries used for process inspection.
type Executor interface {
	// Run executes a command and waits for it to complete.
	// Returns an error if the command fails to start or exits with non-zero status.
	Run(ctx context.Context, name string, args ...string) error

	// Output runs a command and returns its standard output.
	// Returns the output bytes and an error if the command fails.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RealExecutor uses actual exec.Command to execute system commands.
type RealExecutor struct{}

// Run executes a system command using exec.CommandContext.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)
	return cmd.Run()
}

// Output runs a command and returns its standard output.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	hideWindow(cmd)
	return cmd.Output()
}

// SpawnOptions configures how a long-lived child process is started.
type SpawnOptions struct {
	// Dir is the working directory of the child. Empty means the current one.
	Dir string
}

// Process is a handle on a spawned child.
type Process interface {
	// Pid returns the OS process id of the child.
	Pid() int
	// Wait blocks until the child exits. The exit code is nil when the OS
	// did not report one (for example the child was killed by a signal).
	// A non-nil error means waiting itself failed, not that the child
	// returned a non-zero status.
	Wait() (exitCode *int, err error)
	// Kill terminates the child immediately.
	Kill() error
}

// Spawner starts processes that outlive the call that created them. Spawned
// children are not bound to a context: a game keeps running if the caller
// shuts down.
type Spawner interface {
	Spawn(opts SpawnOptions, name string, args ...string) (Process, error)
}

// RealSpawner starts real OS processes.
type RealSpawner struct{}

// Spawn starts name in opts.Dir without waiting for it.
func (*RealSpawner) Spawn(opts SpawnOptions, name string, args ...string) (Process, error) {
	//nolint:gosec // launching user-configured executables is the point
	cmd := exec.Command(name, args...)
	cmd.Dir = opts.Dir
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (*int, error) {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("failed to wait for process %d: %w", p.Pid(), err)
	}
	state := p.cmd.ProcessState
	if state == nil || state.ExitCode() < 0 {
		return nil, nil
	}
	code := state.ExitCode()
	return &code, nil
}

func (p *execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill process %d: %w", p.Pid(), err)
	}
	return nil
}
