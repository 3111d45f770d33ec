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

// Package procinspect queries the OS process table for the executable path
// and name of running processes and checks which of a set of PIDs are still
// alive.
//
// Every query fails open: an error is logged and an empty result returned,
// so callers treat an unreadable process table as "nothing found" rather
// than stalling a session.
package procinspect

import (
	"context"
	"runtime"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/helpers/command"
	"github.com/rs/zerolog/log"
)

const (
	BackendNative     = "native"
	BackendPowerShell = "powershell"

	DefaultQueryTimeout = 10 * time.Second
)

// ProcessRecord is a snapshot of one running process.
type ProcessRecord struct {
	Path string
	Name string
	PID  int
}

// Inspector is the set of process table queries the monitor relies on.
type Inspector interface {
	// ListProcesses returns every process with a resolvable executable path.
	ListProcesses(ctx context.Context) []ProcessRecord
	// Running returns the subset of pids still present in the process table.
	// An empty input returns an empty result without querying.
	Running(ctx context.Context, pids []int) []int
	// FindByNames returns processes whose name matches one of names, ignoring
	// case and an optional ".exe" suffix on either side.
	FindByNames(ctx context.Context, names []string) []ProcessRecord
}

// New builds the inspector for backend. The PowerShell backend is only
// available on Windows; elsewhere the native backend is used instead.
func New(backend string, exec command.Executor, timeout time.Duration) Inspector {
	if backend == BackendPowerShell {
		if runtime.GOOS == "windows" {
			return NewPowerShell(exec, timeout)
		}
		log.Warn().
			Str("os", runtime.GOOS).
			Msg("procinspect: powershell backend requires windows, using native")
	}
	return NewNative(timeout)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
