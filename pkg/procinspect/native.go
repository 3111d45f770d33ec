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

package procinspect

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sync/singleflight"
)

const (
	snapshotWithPaths = "paths"
	snapshotAll       = "all"
)

// Native reads the process table through gopsutil and checks liveness with
// direct syscalls. Concurrent full listings from different sessions are
// coalesced into a single scan.
type Native struct {
	snapshot func(ctx context.Context, requirePath bool) ([]ProcessRecord, error)
	alive    func(pid int) bool
	group    singleflight.Group
	timeout  time.Duration
}

func NewNative(timeout time.Duration) *Native {
	return &Native{
		snapshot: gopsutilSnapshot,
		alive:    pidAlive,
		timeout:  timeout,
	}
}

func (n *Native) ListProcesses(ctx context.Context) []ProcessRecord {
	return n.coalesced(ctx, snapshotWithPaths, true)
}

func (n *Native) FindByNames(ctx context.Context, names []string) []ProcessRecord {
	if NewNameMatcher(names).Empty() {
		return nil
	}
	return filterByNames(n.coalesced(ctx, snapshotAll, false), names)
}

func (n *Native) Running(ctx context.Context, pids []int) []int {
	if len(pids) == 0 {
		return nil
	}
	running := make([]int, 0, len(pids))
	for _, pid := range pids {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("procinspect: liveness check interrupted")
			return nil
		}
		if n.alive(pid) {
			running = append(running, pid)
		}
	}
	return running
}

func (n *Native) coalesced(ctx context.Context, key string, requirePath bool) []ProcessRecord {
	v, err, shared := n.group.Do(key, func() (any, error) {
		// detached from the first caller so its cancellation does not fail
		// every caller sharing the scan
		qctx, cancel := withTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		return n.snapshot(qctx, requirePath)
	})
	if err != nil {
		log.Warn().Err(err).Str("snapshot", key).Msg("procinspect: failed to list processes")
		return nil
	}
	if shared {
		log.Debug().Str("snapshot", key).Msg("procinspect: shared process scan")
	}
	records, ok := v.([]ProcessRecord)
	if !ok {
		return nil
	}
	return records
}

func gopsutilSnapshot(ctx context.Context, requirePath bool) ([]ProcessRecord, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate processes: %w", err)
	}

	records := make([]ProcessRecord, 0, len(procs))
	for _, p := range procs {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("process scan aborted: %w", ctxErr)
		}

		exe, exeErr := p.ExeWithContext(ctx)
		if exeErr != nil {
			exe = ""
		}
		if exe == "" && requirePath {
			continue
		}

		name, nameErr := p.NameWithContext(ctx)
		if nameErr != nil || name == "" {
			if exe == "" {
				continue
			}
			name = filepath.Base(exe)
		}

		records = append(records, ProcessRecord{
			PID:  int(p.Pid),
			Path: exe,
			Name: name,
		})
	}

	if len(records) == 0 && len(procs) > 0 && requirePath {
		return nil, errors.New("no process exposed an executable path")
	}
	return records, nil
}
