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

package config

import (
	"strings"
	"time"
)

const (
	DefaultLongRunningThreshold = 10 * time.Second
	DefaultGraceDelay           = 5 * time.Second
	DefaultPollInterval         = 3 * time.Second
	DefaultPollCeiling          = 12 * time.Hour
	DefaultQueryTimeout         = 10 * time.Second

	InspectorNative     = "native"
	InspectorPowerShell = "powershell"

	CeilingIncomplete = "incomplete"
	CeilingComplete   = "complete"
	CeilingAbandon    = "abandon"

	DefaultMonitorMode = "folder"
)

// Monitor configures how launched games are classified and tracked.
type Monitor struct {
	LongRunningThreshold string `toml:"long_running_threshold,omitempty"`
	GraceDelay           string `toml:"grace_delay,omitempty"`
	PollInterval         string `toml:"poll_interval,omitempty"`
	PollCeiling          string `toml:"poll_ceiling,omitempty"`
	QueryTimeout         string `toml:"query_timeout,omitempty"`
	Inspector            string `toml:"inspector,omitempty"`
	CeilingPolicy        string `toml:"ceiling_policy,omitempty"`
	DefaultMode          string `toml:"default_mode,omitempty"`
}

// parseDurationOr returns def when s is empty, unparseable or not positive.
func parseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// LongRunningThreshold is the minimum lifetime of the spawned process for it
// to be counted as the game itself rather than a launcher stub.
func (c *Instance) LongRunningThreshold() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Monitor.LongRunningThreshold, DefaultLongRunningThreshold)
}

// GraceDelay is how long to wait after a launcher stub exits before looking
// for the processes it handed off to.
func (c *Instance) GraceDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Monitor.GraceDelay, DefaultGraceDelay)
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Monitor.PollInterval, DefaultPollInterval)
}

// PollCeiling bounds how long discovered processes are polled.
func (c *Instance) PollCeiling() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Monitor.PollCeiling, DefaultPollCeiling)
}

// QueryTimeout bounds each process table query.
func (c *Instance) QueryTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return parseDurationOr(c.vals.Monitor.QueryTimeout, DefaultQueryTimeout)
}

// Inspector returns the process inspector backend, "native" unless
// "powershell" is configured.
func (c *Instance) Inspector() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if strings.EqualFold(c.vals.Monitor.Inspector, InspectorPowerShell) {
		return InspectorPowerShell
	}
	return InspectorNative
}

// CeilingPolicy returns what happens to a session whose processes are still
// alive when the poll ceiling is reached. Unknown values fall back to
// "incomplete".
func (c *Instance) CeilingPolicy() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch p := strings.ToLower(c.vals.Monitor.CeilingPolicy); p {
	case CeilingComplete, CeilingAbandon:
		return p
	default:
		return CeilingIncomplete
	}
}

func (c *Instance) SetCeilingPolicy(policy string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Monitor.CeilingPolicy = policy
}

// DefaultMonitorMode is used for games with no stored monitoring mode.
func (c *Instance) DefaultMonitorMode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Monitor.DefaultMode == "" {
		return DefaultMonitorMode
	}
	return strings.ToLower(c.vals.Monitor.DefaultMode)
}
