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
	"context"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
)

// instrumented times every inspector query.
type instrumented struct {
	inner procinspect.Inspector
}

func observe(query string, start time.Time) {
	metrics.ObserveInspectorQuery(query, time.Since(start).Seconds())
}

func (i instrumented) ListProcesses(ctx context.Context) []procinspect.ProcessRecord {
	defer observe("list", time.Now())
	return i.inner.ListProcesses(ctx)
}

func (i instrumented) Running(ctx context.Context, pids []int) []int {
	if len(pids) == 0 {
		return nil
	}
	defer observe("running", time.Now())
	return i.inner.Running(ctx, pids)
}

func (i instrumented) FindByNames(ctx context.Context, names []string) []procinspect.ProcessRecord {
	defer observe("find", time.Now())
	return i.inner.FindByNames(ctx, names)
}
