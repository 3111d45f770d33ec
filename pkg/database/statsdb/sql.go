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

package statsdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations", "stats"); err != nil {
		return fmt.Errorf("failed to run stats database migrations: %w", err)
	}
	return nil
}

//goland:noinspection SqlWithoutWhere
func sqlTruncate(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	delete from Sessions;
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

func sqlInsertSession(ctx context.Context, db *sql.DB, entry *database.SessionEntry) (int64, error) {
	stmt, err := db.PrepareContext(ctx, `
		insert into Sessions(
			GameID, Title, StartTime, LaunchMethod, ExecutablePath,
			SessionDate, SessionYear, SessionMonth, SessionWeek, SessionDayOfWeek,
			Completed, CreatedAt
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare session insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	res, err := stmt.ExecContext(ctx,
		entry.GameID,
		entry.Title,
		entry.StartTime.UnixMilli(),
		entry.LaunchMethod,
		entry.ExecutablePath,
		entry.Date,
		entry.Year,
		entry.Month,
		entry.Week,
		entry.DayOfWeek,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to execute session insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted session id: %w", err)
	}
	return id, nil
}

func sqlUpdateSessionOnExit(
	ctx context.Context,
	db *sql.DB,
	dbid int64,
	endTime time.Time,
	durationSec int64,
	exitCode *int,
	completed bool,
) error {
	stmt, err := db.PrepareContext(ctx, `
		update Sessions
		set EndTime = ?, DurationSec = ?, ExitCode = ?, Completed = ?
		where DBID = ?;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare session update statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	var code sql.NullInt64
	if exitCode != nil {
		code = sql.NullInt64{Int64: int64(*exitCode), Valid: true}
	}

	res, err := stmt.ExecContext(ctx, endTime.UnixMilli(), durationSec, code, completed, dbid)
	if err != nil {
		return fmt.Errorf("failed to execute session update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("session %d not found", dbid)
	}
	return nil
}

const sessionColumns = `
	DBID, GameID, Title, StartTime, EndTime, DurationSec, LaunchMethod,
	ExecutablePath, ExitCode, SessionDate, SessionYear, SessionMonth,
	SessionWeek, SessionDayOfWeek, Completed
`

func scanSessions(rows *sql.Rows) ([]database.SessionEntry, error) {
	list := make([]database.SessionEntry, 0)
	for rows.Next() {
		var row database.SessionEntry
		var start int64
		var end, code sql.NullInt64
		scanErr := rows.Scan(
			&row.DBID,
			&row.GameID,
			&row.Title,
			&start,
			&end,
			&row.DurationSec,
			&row.LaunchMethod,
			&row.ExecutablePath,
			&code,
			&row.Date,
			&row.Year,
			&row.Month,
			&row.Week,
			&row.DayOfWeek,
			&row.Completed,
		)
		if scanErr != nil {
			return list, fmt.Errorf("failed to scan session row: %w", scanErr)
		}
		row.StartTime = time.UnixMilli(start)
		if end.Valid {
			t := time.UnixMilli(end.Int64)
			row.EndTime = &t
		}
		if code.Valid {
			c := int(code.Int64)
			row.ExitCode = &c
		}
		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return list, fmt.Errorf("error iterating session rows: %w", err)
	}
	return list, nil
}

func querySessions(ctx context.Context, db *sql.DB, query string, args ...any) ([]database.SessionEntry, error) {
	q, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sessions query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	rows, err := q.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()
	return scanSessions(rows)
}

func sqlGetRecentSessions(ctx context.Context, db *sql.DB, limit int) ([]database.SessionEntry, error) {
	return querySessions(ctx, db, `
		select `+sessionColumns+`
		from Sessions
		where Completed = 1
		order by StartTime desc, DBID desc
		limit ?;
	`, limit)
}

func sqlGetOpenSessions(ctx context.Context, db *sql.DB) ([]database.SessionEntry, error) {
	return querySessions(ctx, db, `
		select `+sessionColumns+`
		from Sessions
		where EndTime is null
		order by StartTime asc;
	`)
}

func sqlGetOverallStats(
	ctx context.Context,
	db *sql.DB,
	windows database.StatsWindows,
) (database.OverallStats, error) {
	var stats database.OverallStats
	q, err := db.PrepareContext(ctx, `
		select
			coalesce(sum(DurationSec), 0),
			count(*),
			count(distinct GameID),
			coalesce(sum(case when StartTime >= ? then DurationSec else 0 end), 0),
			coalesce(sum(case when StartTime >= ? then DurationSec else 0 end), 0),
			coalesce(sum(case when StartTime >= ? then DurationSec else 0 end), 0)
		from Sessions
		where Completed = 1;
	`)
	if err != nil {
		return stats, fmt.Errorf("failed to prepare stats query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	err = q.QueryRowContext(ctx,
		windows.Today.UnixMilli(),
		windows.Week.UnixMilli(),
		windows.Month.UnixMilli(),
	).Scan(
		&stats.TotalSeconds,
		&stats.TotalSessions,
		&stats.GamesPlayed,
		&stats.TodaySeconds,
		&stats.WeekSeconds,
		&stats.MonthSeconds,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to scan overall stats: %w", err)
	}
	return stats, nil
}
