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
	"encoding/json"
	"fmt"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
)

// APIClient is the slice of the API the CLI needs, so commands can be
// tested against a mock.
type APIClient interface {
	Call(ctx context.Context, method, params string) (string, error)
	// WaitNotification blocks for one notification of the given method. A
	// negative timeout waits until ctx is done.
	WaitNotification(ctx context.Context, timeout time.Duration, method string) (string, error)
}

// LocalAPIClient reaches the daemon at the API address in cfg.
type LocalAPIClient struct {
	cfg *config.Instance
}

func NewLocalAPIClient(cfg *config.Instance) *LocalAPIClient {
	return &LocalAPIClient{cfg: cfg}
}

func (c *LocalAPIClient) Call(ctx context.Context, method, params string) (string, error) {
	resp, err := LocalClient(ctx, c.cfg, method, params)
	if err != nil {
		return "", fmt.Errorf("api call failed: %w", err)
	}
	return resp, nil
}

func (c *LocalAPIClient) WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	method string,
) (string, error) {
	resp, err := WaitNotification(ctx, timeout, c.cfg, method)
	if err != nil {
		return "", fmt.Errorf("wait notification failed: %w", err)
	}
	return resp, nil
}

// WaitSessionEnded blocks until the daemon reports a completed session.
func WaitSessionEnded(
	ctx context.Context,
	api APIClient,
	timeout time.Duration,
) (*models.SessionEndedPayload, error) {
	params, err := api.WaitNotification(ctx, timeout, models.NotificationSessionEnded)
	if err != nil {
		return nil, err //nolint:wrapcheck // already wrapped by the client
	}
	var payload models.SessionEndedPayload
	if err := json.Unmarshal([]byte(params), &payload); err != nil {
		return nil, fmt.Errorf("invalid %s params: %w", models.NotificationSessionEnded, err)
	}
	return &payload, nil
}
