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
	"testing"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTempStatsDB(t *testing.T) *StatsDB {
	t.Helper()
	db, err := OpenStatsDB(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertSession(t *testing.T, db *StatsDB, gameID string, start time.Time) int64 {
	t.Helper()
	id, err := db.InsertSession(&database.SessionEntry{
		GameID:         gameID,
		Title:          gameID,
		StartTime:      start,
		LaunchMethod:   "exe",
		ExecutablePath: "/games/" + gameID,
		CalendarFields: database.NewCalendarFields(start),
	})
	require.NoError(t, err)
	return id
}

func TestStatsDB_SessionLifecycle_Integration(t *testing.T) {
	db := setupTempStatsDB(t)

	start := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	id := insertSession(t, db, "hk", start)
	assert.Positive(t, id)

	open, err := db.GetOpenSessions()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, id, open[0].DBID)
	assert.Nil(t, open[0].EndTime)
	assert.False(t, open[0].Completed)

	recent, err := db.GetRecentSessions(10)
	require.NoError(t, err)
	assert.Empty(t, recent, "open sessions are not recent sessions")

	code := 0
	end := start.Add(time.Hour)
	require.NoError(t, db.UpdateSessionOnExit(id, end, 3600, &code, true))

	open, err = db.GetOpenSessions()
	require.NoError(t, err)
	assert.Empty(t, open)

	recent, err = db.GetRecentSessions(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(3600), recent[0].DurationSec)
	assert.True(t, recent[0].Completed)
	require.NotNil(t, recent[0].EndTime)
	assert.True(t, end.Equal(*recent[0].EndTime))
	assert.Equal(t, start.Format(time.DateOnly), recent[0].Date)
}

func TestStatsDB_RecentSessionsOrderAndLimit_Integration(t *testing.T) {
	db := setupTempStatsDB(t)

	base := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.Local)
	for i := range 5 {
		start := base.Add(time.Duration(i) * time.Hour)
		id := insertSession(t, db, "g", start)
		require.NoError(t, db.UpdateSessionOnExit(id, start.Add(time.Minute), 60, nil, true))
	}
	// launcher-only session
	stub := insertSession(t, db, "g", base.Add(10*time.Hour))
	require.NoError(t, db.UpdateSessionOnExit(stub, base.Add(10*time.Hour), 0, nil, false))

	recent, err := db.GetRecentSessions(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].StartTime.After(recent[1].StartTime))
	assert.True(t, recent[1].StartTime.After(recent[2].StartTime))
	for _, s := range recent {
		assert.True(t, s.Completed)
	}
}

func TestStatsDB_OverallStats_Integration(t *testing.T) {
	db := setupTempStatsDB(t)

	loc := time.FixedZone("test", 0)
	now := time.Date(2026, time.October, 14, 18, 0, 0, 0, loc) // Wednesday

	sessions := []struct {
		start     time.Time
		game      string
		seconds   int64
		completed bool
	}{
		{start: now.Add(-2 * time.Hour), game: "a", seconds: 600, completed: true},
		{start: time.Date(2026, time.October, 12, 9, 0, 0, 0, loc), game: "b", seconds: 1200, completed: true},
		{start: time.Date(2026, time.October, 2, 9, 0, 0, 0, loc), game: "a", seconds: 1800, completed: true},
		{start: time.Date(2026, time.September, 30, 9, 0, 0, 0, loc), game: "c", seconds: 3000, completed: true},
		{start: now.Add(-time.Hour), game: "d", seconds: 4, completed: false},
	}
	for _, s := range sessions {
		id := insertSession(t, db, s.game, s.start)
		require.NoError(t, db.UpdateSessionOnExit(id, s.start.Add(time.Duration(s.seconds)*time.Second),
			s.seconds, nil, s.completed))
	}

	stats, err := db.GetOverallStats(now)
	require.NoError(t, err)
	assert.Equal(t, database.OverallStats{
		TotalSeconds:  6600,
		TotalSessions: 4,
		GamesPlayed:   3,
		TodaySeconds:  600,
		WeekSeconds:   1800,
		MonthSeconds:  3600,
	}, stats)
}

func TestStatsDB_ReopenKeepsData_Integration(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := OpenStatsDB(ctx, dir)
	require.NoError(t, err)
	id := insertSession(t, db, "hk", time.Now())
	require.NoError(t, db.Close())

	db, err = OpenStatsDB(ctx, dir)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, db.MigrateUp())

	open, err := db.GetOpenSessions()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, id, open[0].DBID)
	assert.Contains(t, db.GetDBPath(), "stats.db")
}

func TestStatsDB_Truncate_Integration(t *testing.T) {
	db := setupTempStatsDB(t)
	insertSession(t, db, "hk", time.Now())

	require.NoError(t, db.Truncate())
	open, err := db.GetOpenSessions()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStatsDB_SchemaVersion_Integration(t *testing.T) {
	db := setupTempStatsDB(t)

	v, err := database.SchemaVersion(db.UnsafeGetSQLDb(), migrationFiles, "stats")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}
