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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNameMatcher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		proc    string
		allowed []string
		want    bool
	}{
		{name: "exact", proc: "HollowKnight.exe", allowed: []string{"HollowKnight.exe"}, want: true},
		{name: "suffix optional in list", proc: "HollowKnight.exe", allowed: []string{"hollowknight"}, want: true},
		{name: "suffix optional on process", proc: "hollowknight", allowed: []string{"HollowKnight.EXE"}, want: true},
		{name: "case folded unicode", proc: "ÉCLAIR.exe", allowed: []string{"éclair"}, want: true},
		{name: "different name", proc: "launcher.exe", allowed: []string{"game.exe"}, want: false},
		{name: "blank list entries ignored", proc: "", allowed: []string{"  "}, want: false},
		{name: "empty list", proc: "game.exe", allowed: nil, want: false},
		{name: "surrounding space", proc: "game.exe", allowed: []string{" game "}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewNameMatcher(tt.allowed).Match(tt.proc))
		})
	}
}

func TestFilterByNames(t *testing.T) {
	t.Parallel()

	records := []ProcessRecord{
		{PID: 1, Name: "Game.exe", Path: `C:\Games\Game.exe`},
		{PID: 2, Name: "AntiCheat.exe"},
		{PID: 3, Name: "explorer.exe", Path: `C:\Windows\explorer.exe`},
	}

	got := filterByNames(records, []string{"game", "anticheat.exe"})
	assert.Equal(t, []ProcessRecord{records[0], records[1]}, got)
	assert.Empty(t, filterByNames(records, nil))
}

// TestPropertyNameMatchesItself verifies any name matches itself regardless
// of case and of whether the executable suffix is present.
func TestPropertyNameMatchesItself(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.StringMatching(`[A-Za-z0-9_\-]{1,20}`).Draw(t, "base")
		withExe := rapid.Bool().Draw(t, "withExe")
		listWithExe := rapid.Bool().Draw(t, "listWithExe")

		proc := base
		if withExe {
			proc += ".exe"
		}
		entry := strings.ToUpper(base)
		if listWithExe {
			entry += ".EXE"
		}

		if !NewNameMatcher([]string{entry}).Match(proc) {
			t.Fatalf("%q should match allow-list entry %q", proc, entry)
		}
	})
}
