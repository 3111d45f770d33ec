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

package metadb

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations", "metadata"); err != nil {
		return fmt.Errorf("failed to run metadata database migrations: %w", err)
	}
	return nil
}

//goland:noinspection SqlWithoutWhere
func sqlTruncate(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	delete from Games;
	vacuum;
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	if err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `vacuum;`)
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func sqlUpsertGame(ctx context.Context, db *sql.DB, game *database.Game) error {
	names := game.ProcessNames
	if names == nil {
		names = []string{}
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode process names: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, `
		insert into Games(
			GameID, Title, WorkingDir, MonitorMode, ProcessNames, DateAdded
		) values (?, ?, ?, ?, ?, ?)
		on conflict(GameID) do update set
			Title = excluded.Title,
			WorkingDir = excluded.WorkingDir,
			MonitorMode = excluded.MonitorMode,
			ProcessNames = excluded.ProcessNames;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare game upsert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	_, err = stmt.ExecContext(ctx,
		game.GameID,
		game.Title,
		game.WorkingDir,
		int(game.MonitorMode),
		string(namesJSON),
		game.DateAdded.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to execute game upsert: %w", err)
	}
	return nil
}

func sqlGetGame(ctx context.Context, db *sql.DB, gameID string) (database.Game, error) {
	var game database.Game
	q, err := db.PrepareContext(ctx, `
		select
		GameID, Title, TimePlayed, LastPlayed, WorkingDir, MonitorMode, ProcessNames, DateAdded
		from Games
		where GameID = ?;
	`)
	if err != nil {
		return game, fmt.Errorf("failed to prepare game query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	var lastPlayed sql.NullInt64
	var mode int
	var namesJSON string
	var added int64
	err = q.QueryRowContext(ctx, gameID).Scan(
		&game.GameID,
		&game.Title,
		&game.TimePlayed,
		&lastPlayed,
		&game.WorkingDir,
		&mode,
		&namesJSON,
		&added,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return game, fmt.Errorf("%w: %s", database.ErrGameNotFound, gameID)
	}
	if err != nil {
		return game, fmt.Errorf("failed to scan game row: %w", err)
	}

	game.MonitorMode = models.MonitoringMode(mode)
	if !game.MonitorMode.Valid() {
		log.Warn().Str("gameId", gameID).Int("mode", mode).Msg("invalid stored monitor mode, using default")
		game.MonitorMode = models.DefaultMode
	}
	if err := json.Unmarshal([]byte(namesJSON), &game.ProcessNames); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("invalid stored process names, ignoring")
		game.ProcessNames = nil
	}
	game.DateAdded = time.UnixMilli(added)
	if lastPlayed.Valid {
		t := time.UnixMilli(lastPlayed.Int64)
		game.LastPlayed = &t
	}
	return game, nil
}

func sqlSetPlaytimeAndLastPlayed(
	ctx context.Context,
	db *sql.DB,
	gameID string,
	seconds int64,
	lastPlayed time.Time,
) error {
	stmt, err := db.PrepareContext(ctx, `
		update Games set TimePlayed = ?, LastPlayed = ? where GameID = ?;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare playtime update statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	res, err := stmt.ExecContext(ctx, seconds, lastPlayed.UnixMilli(), gameID)
	if err != nil {
		return fmt.Errorf("failed to execute playtime update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", database.ErrGameNotFound, gameID)
	}
	return nil
}
