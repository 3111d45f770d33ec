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

package monitor

import (
	"fmt"
	"time"
)

// State is a step of the per-session state machine:
//
//	Spawned -> EarlyExit | LongRunning
//	EarlyExit -> Discovering -> Polling -> Finalized
//	LongRunning -> Finalized
//
// EarlyExit in file mode and Discovering with nothing found go straight to
// Finalized.
type State int

const (
	StateSpawned State = iota
	StateEarlyExit
	StateLongRunning
	StateDiscovering
	StatePolling
	StateFinalized
)

var stateNames = [...]string{
	StateSpawned:     "spawned",
	StateEarlyExit:   "early_exit",
	StateLongRunning: "long_running",
	StateDiscovering: "discovering",
	StatePolling:     "polling",
	StateFinalized:   "finalized",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome reasons, also used as the metrics outcome label.
const (
	ReasonLongRunning     = "long_running"
	ReasonProcessesExited = "processes_exited"
	ReasonLauncherOnly    = "launcher_only"
	ReasonCeiling         = "ceiling"
	ReasonAbandoned       = "abandoned"
)

// Outcome is how a session ended. Abandoned sessions are never written and
// keep an open row.
type Outcome struct {
	EndTime     time.Time
	ExitCode    *int
	Reason      string
	DurationSec int64
	Completed   bool
}
