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

package mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/stretchr/testify/mock"
)

// MockAPIClient is a mock implementation of client.APIClient for testing.
type MockAPIClient struct {
	mock.Mock
}

// NewMockAPIClient creates a new mock API client.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Call mocks the API call method.
func (m *MockAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	args := m.Called(ctx, method, params)
	return args.String(0), args.Error(1)
}

// WaitNotification mocks waiting for a notification.
func (m *MockAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	notificationType string,
) (string, error) {
	args := m.Called(ctx, timeout, notificationType)
	return args.String(0), args.Error(1)
}

// SetupStatsResponse configures the mock to return overall stats.
func (m *MockAPIClient) SetupStatsResponse(stats *models.OverallStatsResponse) {
	data, _ := json.Marshal(stats)
	m.On("Call", mock.Anything, models.MethodStatsOverall, "").Return(string(data), nil)
}

// SetupStatsError configures the mock to return an error for stats.
func (m *MockAPIClient) SetupStatsError(err error) {
	m.On("Call", mock.Anything, models.MethodStatsOverall, "").Return("", err)
}

// SetupRecentSessionsResponse configures the mock to return recent sessions
// for any params.
func (m *MockAPIClient) SetupRecentSessionsResponse(sessions []models.SessionResponse) {
	data, _ := json.Marshal(models.RecentSessionsResponse{Sessions: sessions})
	m.On("Call", mock.Anything, models.MethodSessionsRecent, mock.Anything).Return(string(data), nil)
}

// SetupSessionEndedNotification configures the mock to return a
// session.ended notification.
func (m *MockAPIClient) SetupSessionEndedNotification(payload *models.SessionEndedPayload) {
	data, _ := json.Marshal(payload)
	m.On("WaitNotification", mock.Anything, mock.Anything, models.NotificationSessionEnded).
		Return(string(data), nil)
}
