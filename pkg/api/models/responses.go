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

package models

import "time"

type VersionResponse struct {
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

type LaunchResponse struct {
	SessionKey string `json:"sessionKey"`
	SessionID  int64  `json:"sessionId"`
	PID        int    `json:"pid"`
}

type ActiveSessionResponse struct {
	StartTime    time.Time      `json:"startTime"`
	Key          string         `json:"key"`
	GameID       string         `json:"gameId"`
	State        string         `json:"state"`
	TrackedPIDs  []int          `json:"trackedPids"`
	SessionID    int64          `json:"sessionId"`
	Mode         MonitoringMode `json:"mode"`
	LauncherStub bool           `json:"launcherStub"`
}

type ActiveSessionsResponse struct {
	Sessions []ActiveSessionResponse `json:"sessions"`
}

type SessionResponse struct {
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	ExitCode       *int       `json:"exitCode,omitempty"`
	GameID         string     `json:"gameId"`
	Title          string     `json:"title"`
	LaunchMethod   string     `json:"launchMethod"`
	ExecutablePath string     `json:"executablePath"`
	ID             int64      `json:"id"`
	DurationSec    int64      `json:"durationSeconds"`
	Completed      bool       `json:"completed"`
}

type RecentSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type OverallStatsResponse struct {
	TotalPlayTime int64 `json:"totalPlayTime"`
	TotalSessions int64 `json:"totalSessions"`
	GamesPlayed   int64 `json:"gamesPlayed"`
	TodayPlayTime int64 `json:"todayPlayTime"`
	WeekPlayTime  int64 `json:"weekPlayTime"`
	MonthPlayTime int64 `json:"monthPlayTime"`
}

// SessionEndedPayload is the params of a session.ended notification.
// Timestamps are unix milliseconds.
type SessionEndedPayload struct {
	GameID          string `json:"gameId"`
	ExecutablePath  string `json:"executablePath"`
	SessionID       int64  `json:"sessionId"`
	SessionSeconds  int64  `json:"sessionTimeSeconds"`
	TotalTimePlayed int64  `json:"totalTimePlayed"`
	StartTime       int64  `json:"startTime"`
	EndTime         int64  `json:"endTime"`
}

// GameLaunchedPayload is the params of a game.launched notification.
type GameLaunchedPayload struct {
	GameID         string `json:"gameId"`
	SessionKey     string `json:"sessionKey"`
	ExecutablePath string `json:"executablePath"`
	LaunchMethod   string `json:"launchMethod"`
	SessionID      int64  `json:"sessionId"`
	PID            int    `json:"pid"`
	StartTime      int64  `json:"startTime"`
}

type GameResponse struct {
	DateAdded    time.Time      `json:"dateAdded"`
	LastPlayed   *time.Time     `json:"lastPlayed,omitempty"`
	GameID       string         `json:"gameId"`
	Title        string         `json:"title"`
	WorkingDir   string         `json:"workingDir,omitempty"`
	ProcessNames []string       `json:"processNames,omitempty"`
	TimePlayed   int64          `json:"timePlayed"`
	Mode         MonitoringMode `json:"mode"`
}
