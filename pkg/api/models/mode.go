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
	"errors"
	"fmt"
	"strings"
)

// MonitoringMode selects how the processes belonging to a launched game are
// found once the spawned process has exited. The integer values are stored
// in the games table.
type MonitoringMode int

const (
	// ModeFile tracks only the spawned process.
	ModeFile MonitoringMode = 0
	// ModeFolder tracks every executable running from the working directory.
	ModeFolder MonitoringMode = 1
	// ModeProcess tracks every process whose name is on an allow-list.
	ModeProcess MonitoringMode = 2

	DefaultMode = ModeFolder
)

var ErrUnknownMode = errors.New("unknown monitoring mode")

var modeNames = map[MonitoringMode]string{
	ModeFile:    "file",
	ModeFolder:  "folder",
	ModeProcess: "process",
}

func (m MonitoringMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Valid reports whether m is one of the known modes.
func (m MonitoringMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMonitoringMode accepts a mode name in any case.
func ParseMonitoringMode(s string) (MonitoringMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m MonitoringMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *MonitoringMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMonitoringMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
