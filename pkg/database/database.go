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

package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
)

/*
 * The monitor only depends on the narrow store interfaces below. Concrete
 * implementations live in statsdb and metadb.
 */

// Database bundles the two databases for service wiring.
type Database struct {
	StatsDB StatsDBI
	MetaDB  MetaDBI
}

var ErrGameNotFound = errors.New("game not found")

// UnknownGameTitle is recorded for sessions of games missing from the
// library.
const UnknownGameTitle = "Unknown Game"

/*
 * Structs for SQL records
 */

// CalendarFields are the local calendar coordinates of a session start.
// They are computed once when the row is created and never recomputed, so
// a later timezone change does not move old sessions between days.
type CalendarFields struct {
	Date      string `json:"date"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Week      int    `json:"week"`
	DayOfWeek int    `json:"dayOfWeek"`
}

// NewCalendarFields computes the calendar fields of t in t's location. Week
// is the ISO 8601 week number; DayOfWeek counts from Sunday = 0.
func NewCalendarFields(t time.Time) CalendarFields {
	_, week := t.ISOWeek()
	return CalendarFields{
		Date:      t.Format(time.DateOnly),
		Year:      t.Year(),
		Month:     int(t.Month()),
		Week:      week,
		DayOfWeek: int(t.Weekday()),
	}
}

// SessionEntry is one persisted play session. EndTime is nil while the
// session is open.
type SessionEntry struct {
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	ExitCode       *int       `json:"exitCode,omitempty"`
	GameID         string     `json:"gameId"`
	Title          string     `json:"title"`
	LaunchMethod   string     `json:"launchMethod"`
	ExecutablePath string     `json:"executablePath"`
	CalendarFields
	DBID        int64 `db:"DBID" json:"id"`
	DurationSec int64 `json:"durationSec"`
	Completed   bool  `json:"completed"`
}

// Game is a library entry with its play time aggregates.
type Game struct {
	DateAdded    time.Time
	LastPlayed   *time.Time
	GameID       string
	Title        string
	WorkingDir   string
	ProcessNames []string
	TimePlayed   int64
	MonitorMode  models.MonitoringMode
}

// LaunchRequest builds a launch request from the game's stored monitoring
// settings.
func (g *Game) LaunchRequest(exePath, launchMethod string) models.LaunchRequest {
	return models.LaunchRequest{
		GameID:         g.GameID,
		ExecutablePath: exePath,
		LaunchMethod:   launchMethod,
		WorkingDir:     g.WorkingDir,
		Mode:           g.MonitorMode,
		ProcessNames:   append([]string(nil), g.ProcessNames...),
	}
}

// OverallStats aggregates completed sessions. All durations are seconds.
type OverallStats struct {
	TotalSeconds  int64 `json:"totalSeconds"`
	TotalSessions int64 `json:"totalSessions"`
	GamesPlayed   int64 `json:"gamesPlayed"`
	TodaySeconds  int64 `json:"todaySeconds"`
	WeekSeconds   int64 `json:"weekSeconds"`
	MonthSeconds  int64 `json:"monthSeconds"`
}

// StatsWindows are the start times of the periods OverallStats reports on,
// in now's location. Weeks start on Monday.
type StatsWindows struct {
	Today time.Time
	Week  time.Time
	Month time.Time
}

func NewStatsWindows(now time.Time) StatsWindows {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	sinceMonday := (int(today.Weekday()) + 6) % 7
	return StatsWindows{
		Today: today,
		Week:  today.AddDate(0, 0, -sinceMonday),
		Month: time.Date(y, m, 1, 0, 0, 0, 0, now.Location()),
	}
}

/*
 * Interfaces for external deps
 */

type GenericDBI interface {
	Open() error
	UnsafeGetSQLDb() *sql.DB
	Truncate() error
	Allocate() error
	MigrateUp() error
	Vacuum() error
	Close() error
	GetDBPath() string
}

// SessionStore persists session rows.
type SessionStore interface {
	InsertSession(entry *SessionEntry) (int64, error)
	UpdateSessionOnExit(
		dbid int64,
		endTime time.Time,
		durationSec int64,
		exitCode *int,
		completed bool,
	) error
}

// GameStore reads and updates per-game aggregates.
type GameStore interface {
	GameTitle(gameID string) (string, error)
	Playtime(gameID string) (int64, error)
	SetPlaytimeAndLastPlayed(gameID string, seconds int64, lastPlayed time.Time) error
}

type StatsDBI interface {
	GenericDBI
	SessionStore
	GetRecentSessions(limit int) ([]SessionEntry, error)
	GetOverallStats(now time.Time) (OverallStats, error)
	GetOpenSessions() ([]SessionEntry, error)
}

type MetaDBI interface {
	GenericDBI
	GameStore
	AddGame(game *Game) error
	GetGame(gameID string) (Game, error)
}
