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

// Package helpers provides testing utilities for database operations.
//
// This package includes mock implementations of database interfaces and helper
// matchers for the values the monitor writes. It enables testing
// database operations without requiring a real SQLite database.
//
// Example usage:
//
//	func TestFinalize(t *testing.T) {
//		statsDB := helpers.NewMockStatsDBI()
//		metaDB := helpers.NewMockMetaDBI()
//
//		statsDB.On("InsertSession", helpers.SessionEntryMatcher()).Return(int64(1), nil)
//		metaDB.On("GameTitle", "hollow-knight").Return("Hollow Knight", nil)
//
//		// Use in your code
//		mon := monitor.NewMonitor(cfg, statsDB, metaDB, inspector, nil)
//
//		// Verify expectations were met
//		statsDB.AssertExpectations(t)
//	}
package helpers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/stretchr/testify/mock"
)

// MockStatsDBI is a mock implementation of the StatsDBI interface using testify/mock
type MockStatsDBI struct {
	mock.Mock
}

// GenericDBI methods
func (m *MockStatsDBI) Open() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StatsDBI open failed: %w", err)
	}
	return nil
}

func (m *MockStatsDBI) UnsafeGetSQLDb() *sql.DB {
	args := m.Called()
	if db, ok := args.Get(0).(*sql.DB); ok {
		return db
	}
	return nil
}

func (m *MockStatsDBI) Truncate() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StatsDBI truncate failed: %w", err)
	}
	return nil
}

func (m *MockStatsDBI) Allocate() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StatsDBI allocate failed: %w", err)
	}
	return nil
}

func (m *MockStatsDBI) MigrateUp() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StatsDBI migrate failed: %w", err)
	}
	return nil
}

func (m *MockStatsDBI) Vacuum() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StatsDBI vacuum failed: %w", err)
	}
	return nil
}

func (m *MockStatsDBI) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StatsDBI close failed: %w", err)
	}
	return nil
}

func (m *MockStatsDBI) GetDBPath() string {
	args := m.Called()
	return args.String(0)
}

// StatsDBI specific methods
func (m *MockStatsDBI) InsertSession(entry *database.SessionEntry) (int64, error) {
	args := m.Called(entry)
	id, _ := args.Get(0).(int64)
	if err := args.Error(1); err != nil {
		return 0, fmt.Errorf("mock StatsDBI insert session failed: %w", err)
	}
	return id, nil
}

func (m *MockStatsDBI) UpdateSessionOnExit(
	dbid int64,
	endTime time.Time,
	durationSec int64,
	exitCode *int,
	completed bool,
) error {
	args := m.Called(dbid, endTime, durationSec, exitCode, completed)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock StatsDBI update session failed: %w", err)
	}
	return nil
}

func (m *MockStatsDBI) GetRecentSessions(limit int) ([]database.SessionEntry, error) {
	args := m.Called(limit)
	sessions, _ := args.Get(0).([]database.SessionEntry)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock StatsDBI recent sessions failed: %w", err)
	}
	return sessions, nil
}

func (m *MockStatsDBI) GetOverallStats(now time.Time) (database.OverallStats, error) {
	args := m.Called(now)
	stats, _ := args.Get(0).(database.OverallStats)
	if err := args.Error(1); err != nil {
		return database.OverallStats{}, fmt.Errorf("mock StatsDBI overall stats failed: %w", err)
	}
	return stats, nil
}

func (m *MockStatsDBI) GetOpenSessions() ([]database.SessionEntry, error) {
	args := m.Called()
	sessions, _ := args.Get(0).([]database.SessionEntry)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock StatsDBI open sessions failed: %w", err)
	}
	return sessions, nil
}

// MockMetaDBI is a mock implementation of the MetaDBI interface using testify/mock
type MockMetaDBI struct {
	mock.Mock
}

// GenericDBI methods
func (m *MockMetaDBI) Open() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI open failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) UnsafeGetSQLDb() *sql.DB {
	args := m.Called()
	if db, ok := args.Get(0).(*sql.DB); ok {
		return db
	}
	return nil
}

func (m *MockMetaDBI) Truncate() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI truncate failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) Allocate() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI allocate failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) MigrateUp() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI migrate failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) Vacuum() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI vacuum failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI close failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) GetDBPath() string {
	args := m.Called()
	return args.String(0)
}

// MetaDBI specific methods
func (m *MockMetaDBI) GameTitle(gameID string) (string, error) {
	args := m.Called(gameID)
	if err := args.Error(1); err != nil {
		return "", fmt.Errorf("mock MetaDBI game title failed: %w", err)
	}
	return args.String(0), nil
}

func (m *MockMetaDBI) Playtime(gameID string) (int64, error) {
	args := m.Called(gameID)
	seconds, _ := args.Get(0).(int64)
	if err := args.Error(1); err != nil {
		return 0, fmt.Errorf("mock MetaDBI playtime failed: %w", err)
	}
	return seconds, nil
}

func (m *MockMetaDBI) SetPlaytimeAndLastPlayed(gameID string, seconds int64, lastPlayed time.Time) error {
	args := m.Called(gameID, seconds, lastPlayed)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI set playtime failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) AddGame(game *database.Game) error {
	args := m.Called(game)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock MetaDBI add game failed: %w", err)
	}
	return nil
}

func (m *MockMetaDBI) GetGame(gameID string) (database.Game, error) {
	args := m.Called(gameID)
	game, _ := args.Get(0).(database.Game)
	if err := args.Error(1); err != nil {
		return database.Game{}, fmt.Errorf("mock MetaDBI get game failed: %w", err)
	}
	return game, nil
}

// NewMockStatsDBI creates a new mock StatsDBI. Only the methods a test sets
// expectations on may be called.
//
// Example usage:
//
//	statsDB := helpers.NewMockStatsDBI()
//	statsDB.On("GetOverallStats", mock.Anything).Return(database.OverallStats{TotalSessions: 3}, nil)
func NewMockStatsDBI() *MockStatsDBI {
	return &MockStatsDBI{}
}

// NewMockMetaDBI creates a new mock MetaDBI.
//
// Example usage:
//
//	metaDB := helpers.NewMockMetaDBI()
//	metaDB.On("GetGame", "celeste").Return(fixtures.SampleGames()[0], nil)
func NewMockMetaDBI() *MockMetaDBI {
	return &MockMetaDBI{}
}

// Matcher functions for common database types

// SessionEntryMatcher returns a testify matcher for a freshly started
// session row.
//
// Example usage:
//
//	statsDB.On("InsertSession", helpers.SessionEntryMatcher()).Return(int64(1), nil)
func SessionEntryMatcher() any {
	return mock.MatchedBy(func(e *database.SessionEntry) bool {
		if e == nil {
			return false
		}
		return !e.StartTime.IsZero() && e.GameID != "" && e.EndTime == nil && e.Date != ""
	})
}

// GameMatcher returns a testify matcher for database.Game.
//
// Example usage:
//
//	metaDB.On("AddGame", helpers.GameMatcher()).Return(nil)
func GameMatcher() any {
	return mock.MatchedBy(func(g *database.Game) bool {
		return g != nil && g.GameID != "" && g.Title != ""
	})
}
