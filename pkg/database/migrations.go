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
	"fmt"
	"io/fs"

	"github.com/mlmaid/mlmaid-core/pkg/helpers/syncutil"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

// goose keeps its filesystem and dialect in package globals, so both
// databases migrating at startup must take turns.
var migrationMutex syncutil.Mutex

// gooseLogger sends goose output to zerolog instead of stdout.
type gooseLogger struct {
	db string
}

func (l *gooseLogger) Printf(format string, v ...any) {
	log.Info().Str("db", l.db).Msgf("migrate: "+format, v...)
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	log.Fatal().Str("db", l.db).Msgf("migrate: "+format, v...)
}

func prepareGoose(name string, migrations fs.FS) error {
	goose.SetLogger(&gooseLogger{db: name})
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("error setting goose dialect: %w", err)
	}
	return nil
}

// MigrateUp applies every pending migration in dir of migrations to db.
// name identifies the database in logs.
func MigrateUp(db *sql.DB, migrations fs.FS, dir, name string) error {
	migrationMutex.Lock()
	defer migrationMutex.Unlock()

	if err := prepareGoose(name, migrations); err != nil {
		return err
	}

	before, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("error reading %s schema version: %w", name, err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("error running %s migrations up: %w", name, err)
	}

	after, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("error reading %s schema version: %w", name, err)
	}
	if after != before {
		log.Info().Str("db", name).Int64("from", before).Int64("to", after).Msg("database schema migrated")
	}
	return nil
}

// SchemaVersion returns the applied migration version of db.
func SchemaVersion(db *sql.DB, migrations fs.FS, name string) (int64, error) {
	migrationMutex.Lock()
	defer migrationMutex.Unlock()

	if err := prepareGoose(name, migrations); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("error reading %s schema version: %w", name, err)
	}
	return v, nil
}
