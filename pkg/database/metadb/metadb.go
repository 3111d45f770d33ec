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

// Package metadb stores the game library and its play time aggregates in
// the metadata SQLite database.
package metadb

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

var ErrNullSQL = errors.New("MetaDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

type MetaDB struct {
	sql     *sql.DB
	ctx     context.Context
	dataDir string
}

func OpenMetaDB(ctx context.Context, dataDir string) (*MetaDB, error) {
	db := &MetaDB{sql: nil, ctx: ctx, dataDir: dataDir}
	err := db.Open()
	return db, err
}

func (db *MetaDB) Open() error {
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

func (db *MetaDB) GetDBPath() string {
	return filepath.Join(db.dataDir, config.MetaDbFile)
}

func (db *MetaDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *MetaDB) Truncate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlTruncate(db.ctx, db.sql)
}

func (db *MetaDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *MetaDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *MetaDB) Vacuum() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(db.ctx, db.sql)
}

func (db *MetaDB) Close() error {
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
func (db *MetaDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB) error {
	db.sql = sqlDB
	db.ctx = ctx
	return db.Allocate()
}

// AddGame inserts a game or updates the library fields of an existing one.
// Play time aggregates of an existing game are kept.
func (db *MetaDB) AddGame(game *database.Game) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if game.DateAdded.IsZero() {
		game.DateAdded = time.Now()
	}
	return sqlUpsertGame(db.ctx, db.sql, game)
}

func (db *MetaDB) GetGame(gameID string) (database.Game, error) {
	if db.sql == nil {
		return database.Game{}, ErrNullSQL
	}
	return sqlGetGame(db.ctx, db.sql, gameID)
}

// GameTitle returns the game's title, or database.UnknownGameTitle for a
// game missing from the library.
func (db *MetaDB) GameTitle(gameID string) (string, error) {
	game, err := db.GetGame(gameID)
	if errors.Is(err, database.ErrGameNotFound) {
		return database.UnknownGameTitle, nil
	}
	if err != nil {
		return "", err
	}
	return game.Title, nil
}

// Playtime returns the cumulative seconds played. Unknown games have none.
func (db *MetaDB) Playtime(gameID string) (int64, error) {
	game, err := db.GetGame(gameID)
	if errors.Is(err, database.ErrGameNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return game.TimePlayed, nil
}

func (db *MetaDB) SetPlaytimeAndLastPlayed(gameID string, seconds int64, lastPlayed time.Time) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlSetPlaytimeAndLastPlayed(db.ctx, db.sql, gameID, seconds, lastPlayed)
}
