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

package helpers

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/spf13/afero"
)

// FSHelper provides utilities for filesystem mocking in tests
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOSFS creates a filesystem helper using the real filesystem (for integration tests)
func NewOSFS() *FSHelper {
	return &FSHelper{
		Fs: afero.NewOsFs(),
	}
}

// CreateGameInstall creates an install folder holding the given
// executables (relative to dir) and returns the absolute path of the first.
func (h *FSHelper) CreateGameInstall(dir string, executables ...string) (string, error) {
	if err := h.Fs.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create install directory: %w", err)
	}
	first := ""
	for _, exe := range executables {
		p := filepath.Join(dir, exe)
		if err := h.Fs.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return "", fmt.Errorf("failed to create directory for %s: %w", exe, err)
		}
		if err := afero.WriteFile(h.Fs, p, []byte("MZ"), 0o750); err != nil {
			return "", fmt.Errorf("failed to write executable %s: %w", exe, err)
		}
		if first == "" {
			first = p
		}
	}
	return first, nil
}

// FileExists checks if a file exists in the filesystem
func (h *FSHelper) FileExists(path string) bool {
	_, err := h.Fs.Stat(path)
	return err == nil
}

// NewTestConfig creates a config instance backed by a temp directory, with
// the given values as defaults.
//
//nolint:gocritic // mirrors config.NewConfig
func NewTestConfig(t *testing.T, defaults config.Values) *config.Instance {
	t.Helper()

	if defaults.ConfigSchema == 0 {
		defaults.ConfigSchema = config.SchemaVersion
	}
	cfg, err := config.NewConfig(t.TempDir(), defaults)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	return cfg
}
