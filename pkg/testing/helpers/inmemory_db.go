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
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/database/metadb"
	"github.com/mlmaid/mlmaid-core/pkg/database/statsdb"
)

func NewInMemoryStatsDB(t *testing.T) (db *statsdb.StatsDB, cleanup func()) {
	t.Helper()

	// Temp file rather than :memory: so every pooled connection sees the
	// same database
	dbPath := filepath.Join(t.TempDir(), "statsdb_test.db")

	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	db = &statsdb.StatsDB{}
	err = db.SetSQLForTesting(context.Background(), sqlDB)
	if err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			t.Errorf("Failed to close SQL database after setup error: %v", closeErr)
		}
		t.Fatalf("Failed to set up StatsDB for testing: %v", err)
	}

	cleanup = func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close StatsDB: %v", err)
		}
	}

	return db, cleanup
}

func NewInMemoryMetaDB(t *testing.T) (db *metadb.MetaDB, cleanup func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "metadb_test.db")

	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	db = &metadb.MetaDB{}
	err = db.SetSQLForTesting(context.Background(), sqlDB)
	if err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			t.Errorf("Failed to close SQL database after setup error: %v", closeErr)
		}
		t.Fatalf("Failed to set up MetaDB for testing: %v", err)
	}

	cleanup = func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close MetaDB: %v", err)
		}
	}

	return db, cleanup
}

// NewTestDatabase creates both StatsDB and MetaDB for comprehensive testing.
// Returns a Database wrapper and cleanup function that should be deferred.
func NewTestDatabase(t *testing.T) (db *database.Database, cleanup func()) {
	t.Helper()

	statsDB, statsCleanup := NewInMemoryStatsDB(t)
	metaDB, metaCleanup := NewInMemoryMetaDB(t)

	db = &database.Database{
		StatsDB: statsDB,
		MetaDB:  metaDB,
	}

	cleanup = func() {
		statsCleanup()
		metaCleanup()
	}

	return db, cleanup
}
