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

// Package statsdb stores play sessions in the stats SQLite database.
package statsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/database"
)

var ErrNullSQL = errors.New("StatsDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

type StatsDB struct {
	sql     *sql.DB
	ctx     context.Context
	dataDir string
}

func OpenStatsDB(ctx context.Context, dataDir string) (*StatsDB, error) {
	db := &StatsDB{sql: nil, ctx: ctx, dataDir: dataDir}
	err := db.Open()
	return db, err
}

func (db *StatsDB) Open() error {
	exists := true
	dbPath := db.GetDBPath()
	_, err := os.Stat(dbPath)
	if err != nil {
		exists = false
		mkdirErr := os.MkdirAll(filepath.Dir(dbPath), 0o750)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory for database: %w", mkdirErr)
		}
	}
	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance
	if !exists {
		return db.Allocate()
	}
	return nil
}

func (db *StatsDB) GetDBPath() string {
	return filepath.Join(db.dataDir, config.StatsDbFile)
}

func (db *StatsDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *StatsDB) Truncate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlTruncate(db.ctx, db.sql)
}

func (db *StatsDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *StatsDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *StatsDB) Vacuum() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(db.ctx, db.sql)
}

func (db *StatsDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting allows injection of a sql.DB instance for testing purposes.
// This method should only be used in tests to set up temporary databases.
func (db *StatsDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB) error {
	db.sql = sqlDB
	db.ctx = ctx
	return db.Allocate()
}

func (db *StatsDB) InsertSession(entry *database.SessionEntry) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	id, err := sqlInsertSession(db.ctx, db.sql, entry)
	if err != nil {
		return 0, err
	}
	entry.DBID = id
	return id, nil
}

func (db *StatsDB) UpdateSessionOnExit(
	dbid int64,
	endTime time.Time,
	durationSec int64,
	exitCode *int,
	completed bool,
) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlUpdateSessionOnExit(db.ctx, db.sql, dbid, endTime, durationSec, exitCode, completed)
}

// GetRecentSessions returns completed sessions, newest first. A limit below
// one selects DefaultRecentLimit; limits above MaxRecentLimit are capped.
func (db *StatsDB) GetRecentSessions(limit int) ([]database.SessionEntry, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetRecentSessions(db.ctx, db.sql, clampLimit(limit))
}

func (db *StatsDB) GetOverallStats(now time.Time) (database.OverallStats, error) {
	if db.sql == nil {
		return database.OverallStats{}, ErrNullSQL
	}
	return sqlGetOverallStats(db.ctx, db.sql, database.NewStatsWindows(now))
}

// GetOpenSessions returns sessions that were never closed, for example
// because the service stopped while a game was running.
func (db *StatsDB) GetOpenSessions() ([]database.SessionEntry, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetOpenSessions(db.ctx, db.sql)
}

func clampLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}
