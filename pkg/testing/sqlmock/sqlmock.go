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

// Package sqlmock wraps go-sqlmock with expectations for the statements the
// stores prepare. It is separate from helpers to avoid import cycles with
// the database packages.
package sqlmock

import (
	"database/sql"
	"fmt"

	"github.com/DATA-DOG/go-sqlmock"
)

// NewSQLMock creates a mock connection that matches queries by regexp.
func NewSQLMock() (*sql.DB, sqlmock.Sqlmock, error) {
	db, mockDB, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sqlmock: %w", err)
	}
	return db, mockDB, nil
}

// ExpectSessionInsert expects the open-row insert done at launch and makes
// it return id.
func ExpectSessionInsert(mockDB sqlmock.Sqlmock, id int64) *sqlmock.ExpectedExec {
	return mockDB.ExpectPrepare(`insert into Sessions`).
		ExpectExec().
		WillReturnResult(sqlmock.NewResult(id, 1))
}

// ExpectSessionUpdate expects the end-of-session update of row id.
func ExpectSessionUpdate(mockDB sqlmock.Sqlmock, id int64) *sqlmock.ExpectedExec {
	return mockDB.ExpectPrepare(`update Sessions`).
		ExpectExec().
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
}
