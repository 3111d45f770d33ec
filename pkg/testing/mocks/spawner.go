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
	"errors"
	"sync"

	"github.com/mlmaid/mlmaid-core/pkg/helpers/command"
)

// ErrKilled is the Wait error of a FakeProcess ended with Kill.
var ErrKilled = errors.New("process killed")

type processExit struct {
	err  error
	code *int
}

// FakeProcess is a spawned process whose exit is controlled by the test.
type FakeProcess struct {
	exit   chan processExit
	name   string
	dir    string
	pid    int
	once   sync.Once
	mu     sync.Mutex
	killed bool
}

func NewFakeProcess(pid int) *FakeProcess {
	return &FakeProcess{pid: pid, exit: make(chan processExit, 1)}
}

func (p *FakeProcess) Pid() int { return p.pid }

// Name returns the executable the process was spawned from.
func (p *FakeProcess) Name() string { return p.name }

// Dir returns the working directory the process was spawned in.
func (p *FakeProcess) Dir() string { return p.dir }

func (p *FakeProcess) Wait() (*int, error) {
	e := <-p.exit
	// let later Wait calls see the same result
	p.exit <- e
	return e.code, e.err
}

// Exit ends the process with code. Only the first Exit, Fail or Kill has
// an effect.
func (p *FakeProcess) Exit(code int) {
	p.finish(processExit{code: &code})
}

// ExitUnknown ends the process without an exit code.
func (p *FakeProcess) ExitUnknown() {
	p.finish(processExit{})
}

// Fail makes Wait return err.
func (p *FakeProcess) Fail(err error) {
	p.finish(processExit{err: err})
}

func (p *FakeProcess) Kill() error {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.finish(processExit{})
	return nil
}

func (p *FakeProcess) Killed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

func (p *FakeProcess) finish(e processExit) {
	p.once.Do(func() { p.exit <- e })
}

// FakeSpawner hands out FakeProcesses with increasing PIDs.
type FakeSpawner struct {
	err       error
	processes []*FakeProcess
	nextPID   int
	mu        sync.Mutex
}

func NewFakeSpawner(firstPID int) *FakeSpawner {
	return &FakeSpawner{nextPID: firstPID}
}

// SetError makes every following Spawn fail with err.
func (s *FakeSpawner) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *FakeSpawner) Spawn(opts command.SpawnOptions, name string, _ ...string) (command.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := NewFakeProcess(s.nextPID)
	p.name = name
	p.dir = opts.Dir
	s.nextPID++
	s.processes = append(s.processes, p)
	return p, nil
}

// Last returns the most recently spawned process, or nil.
func (s *FakeSpawner) Last() *FakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.processes) == 0 {
		return nil
	}
	return s.processes[len(s.processes)-1]
}

func (s *FakeSpawner) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.processes)
}
