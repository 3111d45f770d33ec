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

package discovery

import (
	"path"
	"strings"

	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
	"golang.org/x/text/cases"
)

// Matcher determines if a process belongs to a session.
type Matcher interface {
	Match(proc procinspect.ProcessRecord) bool
}

// MatcherFunc is a function adapter for Matcher interface.
type MatcherFunc func(proc procinspect.ProcessRecord) bool

// Match implements Matcher.
func (f MatcherFunc) Match(proc procinspect.ProcessRecord) bool {
	return f(proc)
}

// normalizePath unifies separators, cleans the path and case folds it so
// paths reported by different APIs compare equal.
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	return cases.Fold().String(p)
}

// FolderMatcher matches processes whose image lives under a directory.
type FolderMatcher struct {
	prefix string
}

// NewFolderMatcher creates a matcher for dir. The match is a prefix match on
// whole path components: "C:\Games\Foo" matches "C:\Games\Foo\bin\foo.exe"
// but not "C:\Games\FooBar\foo.exe". An empty dir matches nothing.
func NewFolderMatcher(dir string) *FolderMatcher {
	norm := normalizePath(dir)
	if norm == "" || norm == "." {
		return &FolderMatcher{}
	}
	if !strings.HasSuffix(norm, "/") {
		norm += "/"
	}
	return &FolderMatcher{prefix: norm}
}

// Match returns true if the process path is inside the directory.
func (m *FolderMatcher) Match(proc procinspect.ProcessRecord) bool {
	if m.prefix == "" {
		return false
	}
	p := normalizePath(proc.Path)
	return len(p) > len(m.prefix) && strings.HasPrefix(p, m.prefix)
}

// ExtensionMatcher matches processes whose image path ends with an
// extension, ignoring case. An empty extension matches every process.
type ExtensionMatcher struct {
	ext string
}

func NewExtensionMatcher(ext string) *ExtensionMatcher {
	return &ExtensionMatcher{ext: cases.Fold().String(ext)}
}

func (m *ExtensionMatcher) Match(proc procinspect.ProcessRecord) bool {
	if m.ext == "" {
		return true
	}
	return strings.HasSuffix(cases.Fold().String(proc.Path), m.ext)
}

// NameMatcher matches processes by name against an allow-list, ignoring
// case and the executable suffix.
type NameMatcher struct {
	names procinspect.NameMatcher
}

func NewNameMatcher(names []string) *NameMatcher {
	return &NameMatcher{names: procinspect.NewNameMatcher(names)}
}

func (m *NameMatcher) Match(proc procinspect.ProcessRecord) bool {
	return m.names.Match(proc.Name)
}

// AndMatcher combines multiple matchers with AND logic.
type AndMatcher struct {
	matchers []Matcher
}

// NewAndMatcher creates a matcher that requires all sub-matchers to match.
func NewAndMatcher(matchers ...Matcher) *AndMatcher {
	return &AndMatcher{matchers: matchers}
}

// Match returns true if all sub-matchers match.
func (m *AndMatcher) Match(proc procinspect.ProcessRecord) bool {
	for _, matcher := range m.matchers {
		if !matcher.Match(proc) {
			return false
		}
	}
	return true
}
