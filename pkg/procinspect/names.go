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

	"golang.org/x/text/cases"
)

const exeSuffix = ".exe"

// foldName normalizes a process name for comparison: Unicode case folded,
// surrounding space removed and a trailing ".exe" dropped. The suffix is
// dropped on every platform because games run through Wine or Proton keep
// their Windows image names.
func foldName(name string) string {
	folded := cases.Fold().String(strings.TrimSpace(name))
	return strings.TrimSuffix(folded, exeSuffix)
}

// NameMatcher reports whether process names match an allow-list.
type NameMatcher struct {
	names map[string]struct{}
}

// NewNameMatcher builds a matcher for names. Blank entries are ignored.
func NewNameMatcher(names []string) NameMatcher {
	m := NameMatcher{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if f := foldName(n); f != "" {
			m.names[f] = struct{}{}
		}
	}
	return m
}

// Empty reports whether the allow-list has no usable names.
func (m NameMatcher) Empty() bool {
	return len(m.names) == 0
}

func (m NameMatcher) Match(name string) bool {
	if len(m.names) == 0 {
		return false
	}
	_, ok := m.names[foldName(name)]
	return ok
}

// filterByNames keeps the records whose name is on the allow-list.
func filterByNames(records []ProcessRecord, names []string) []ProcessRecord {
	m := NewNameMatcher(names)
	if m.Empty() {
		return nil
	}
	var out []ProcessRecord
	for _, r := range records {
		if m.Match(r.Name) {
			out = append(out, r)
		}
	}
	return out
}
