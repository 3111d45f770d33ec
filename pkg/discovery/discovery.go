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

// Package discovery finds the processes that belong to a game session once
// the originally spawned process has exited.
package discovery

import (
	"context"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
	"github.com/rs/zerolog/log"
)

// Target describes what to look for.
type Target struct {
	GameID       string
	WorkingDir   string
	ProcessNames []string
}

// Strategy turns a target into candidate PIDs. A nil or empty result means
// nothing belonging to the session is running.
type Strategy interface {
	Mode() models.MonitoringMode
	Discover(ctx context.Context, target Target) []int
}

// ForMode returns the strategy for mode. Unknown modes fall back to the
// default mode.
func ForMode(mode models.MonitoringMode, inspector procinspect.Inspector) Strategy {
	switch mode {
	case models.ModeFile:
		return FileStrategy{}
	case models.ModeProcess:
		return &ProcessStrategy{inspector: inspector}
	case models.ModeFolder:
		return NewFolderStrategy(inspector)
	default:
		log.Warn().Stringer("mode", mode).Msg("discovery: unknown monitoring mode, using default")
		return ForMode(models.DefaultMode, inspector)
	}
}

// FileStrategy tracks only the spawned process, so once it has exited there
// is nothing left to discover.
type FileStrategy struct{}

func (FileStrategy) Mode() models.MonitoringMode { return models.ModeFile }

func (FileStrategy) Discover(context.Context, Target) []int { return nil }

// FolderStrategy finds executables running from inside the working
// directory. Games often start a launcher, an anti-cheat service and the
// game itself from one install folder.
type FolderStrategy struct {
	inspector procinspect.Inspector
	// Ext is the required image extension. Empty accepts any image.
	Ext string
}

func NewFolderStrategy(inspector procinspect.Inspector) *FolderStrategy {
	return &FolderStrategy{
		inspector: inspector,
		Ext:       procinspect.ExecutableExt,
	}
}

func (*FolderStrategy) Mode() models.MonitoringMode { return models.ModeFolder }

func (s *FolderStrategy) Discover(ctx context.Context, target Target) []int {
	if target.WorkingDir == "" {
		log.Warn().Str("gameId", target.GameID).Msg("discovery: folder mode without working directory")
		return nil
	}
	m := NewAndMatcher(
		NewFolderMatcher(target.WorkingDir),
		NewExtensionMatcher(s.Ext),
	)
	pids := collect(s.inspector.ListProcesses(ctx), m)
	log.Debug().
		Str("gameId", target.GameID).
		Str("dir", target.WorkingDir).
		Ints("pids", pids).
		Msg("discovery: folder scan complete")
	return pids
}

// ProcessStrategy finds processes by name, for games that relaunch from a
// location outside their install folder.
type ProcessStrategy struct {
	inspector procinspect.Inspector
}

func NewProcessStrategy(inspector procinspect.Inspector) *ProcessStrategy {
	return &ProcessStrategy{inspector: inspector}
}

func (*ProcessStrategy) Mode() models.MonitoringMode { return models.ModeProcess }

func (s *ProcessStrategy) Discover(ctx context.Context, target Target) []int {
	if len(target.ProcessNames) == 0 {
		log.Warn().Str("gameId", target.GameID).Msg("discovery: process mode without process names")
		return nil
	}
	pids := collect(s.inspector.FindByNames(ctx, target.ProcessNames), nil)
	log.Debug().
		Str("gameId", target.GameID).
		Strs("names", target.ProcessNames).
		Ints("pids", pids).
		Msg("discovery: name scan complete")
	return pids
}

// collect returns the unique PIDs of the records accepted by m, in listing
// order. A nil matcher accepts every record.
func collect(records []procinspect.ProcessRecord, m Matcher) []int {
	seen := make(map[int]struct{}, len(records))
	var pids []int
	for _, r := range records {
		if m != nil && !m.Match(r) {
			continue
		}
		if _, dup := seen[r.PID]; dup {
			continue
		}
		seen[r.PID] = struct{}{}
		pids = append(pids, r.PID)
	}
	return pids
}
