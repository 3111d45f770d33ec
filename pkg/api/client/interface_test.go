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

package client

import (
	"context"
	"testing"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWaitSessionEnded(t *testing.T) {
	t.Parallel()

	api := mocks.NewMockAPIClient()
	api.SetupSessionEndedNotification(&models.SessionEndedPayload{
		GameID:          "hollow-knight",
		SessionID:       9,
		SessionSeconds:  1800,
		TotalTimePlayed: 5400,
	})

	got, err := WaitSessionEnded(context.Background(), api, -1)
	require.NoError(t, err)
	assert.Equal(t, "hollow-knight", got.GameID)
	assert.Equal(t, int64(9), got.SessionID)
	assert.Equal(t, int64(5400), got.TotalTimePlayed)
}

func TestWaitSessionEnded_BadParams(t *testing.T) {
	t.Parallel()

	api := mocks.NewMockAPIClient()
	api.On("WaitNotification", mock.Anything, mock.Anything, models.NotificationSessionEnded).
		Return("[1,2]", nil)

	_, err := WaitSessionEnded(context.Background(), api, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session.ended params")
}

func TestWaitSessionEnded_PassesErrorThrough(t *testing.T) {
	t.Parallel()

	api := mocks.NewMockAPIClient()
	api.On("WaitNotification", mock.Anything, mock.Anything, models.NotificationSessionEnded).
		Return("", ErrRequestTimeout)

	_, err := WaitSessionEnded(context.Background(), api, 0)
	require.ErrorIs(t, err, ErrRequestTimeout)
}
