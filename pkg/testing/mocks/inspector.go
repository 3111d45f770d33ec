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

package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
	"github.com/stretchr/testify/mock"
)

// MockInspector is a testify mock for procinspect.Inspector.
type MockInspector struct {
	mock.Mock
}

func (m *MockInspector) ListProcesses(ctx context.Context) []procinspect.ProcessRecord {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]procinspect.ProcessRecord)
	return records
}

func (m *MockInspector) Running(ctx context.Context, pids []int) []int {
	args := m.Called(ctx, pids)
	running, _ := args.Get(0).([]int)
	return running
}

func (m *MockInspector) FindByNames(ctx context.Context, names []string) []procinspect.ProcessRecord {
	args := m.Called(ctx, names)
	records, _ := args.Get(0).([]procinspect.ProcessRecord)
	return records
}

// FakeInspector is an in-memory process table. Tests start and stop
// processes on it while a monitor polls it from other goroutines.
type FakeInspector struct {
	procs        map[int]procinspect.ProcessRecord
	listCalls    int
	runningCalls int
	findCalls    int
	failing      bool
	mu           sync.Mutex
}

func NewFakeInspector() *FakeInspector {
	return &FakeInspector{procs: make(map[int]procinspect.ProcessRecord)}
}

// Start adds a process to the table.
func (f *FakeInspector) Start(rec procinspect.ProcessRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs[rec.PID] = rec
}

// Stop removes a process from the table.
func (f *FakeInspector) Stop(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.procs, pid)
}

// SetFailing makes every query behave like a failed OS query: empty results.
func (f *FakeInspector) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *FakeInspector) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *FakeInspector) RunningCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runningCalls
}

func (f *FakeInspector) FindCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findCalls
}

func (f *FakeInspector) ListProcesses(context.Context) []procinspect.ProcessRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failing {
		return nil
	}
	var out []procinspect.ProcessRecord
	for _, rec := range f.procs {
		if rec.Path != "" {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b procinspect.ProcessRecord) int { return a.PID - b.PID })
	return out
}

func (f *FakeInspector) Running(_ context.Context, pids []int) []int {
	if len(pids) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runningCalls++
	if f.failing {
		return nil
	}
	var out []int
	for _, pid := range pids {
		if _, ok := f.procs[pid]; ok {
			out = append(out, pid)
		}
	}
	return out
}

func (f *FakeInspector) FindByNames(_ context.Context, names []string) []procinspect.ProcessRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.failing {
		return nil
	}
	m := procinspect.NewNameMatcher(names)
	var out []procinspect.ProcessRecord
	for _, rec := range f.procs {
		if m.Match(rec.Name) {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b procinspect.ProcessRecord) int { return a.PID - b.PID })
	return out
}
