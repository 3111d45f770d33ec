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

// Package client talks to a running daemon over its local WebSocket API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const APIPath = "/api"

// apiURL is the WebSocket URL of the local API. Wildcard listen addresses
// are dialled on loopback.
func apiURL(cfg *config.Instance) string {
	host, port, err := net.SplitHostPort(cfg.APIListen())
	if err != nil {
		host, port = "127.0.0.1", strconv.Itoa(cfg.APIPort())
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	u := url.URL{
		Scheme: "ws",
		Host:   net.JoinHostPort(host, port),
		Path:   APIPath,
	}
	return u.String()
}

func dial(ctx context.Context, cfg *config.Instance) (*websocket.Conn, error) {
	c, resp, err := websocket.DefaultDialer.DialContext(ctx, apiURL(cfg), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}
	return c, nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing websocket")
	}
}

// timeoutChan returns a channel firing after timeout. Zero uses the default
// request timeout and a negative timeout never fires.
func timeoutChan(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout == 0 {
		timeout = config.APIRequestTimeout
	}
	if timeout < 0 {
		return nil, func() {}
	}
	timer := time.NewTimer(timeout)
	return timer.C, func() { timer.Stop() }
}

// LocalClient calls method on the local API and returns the raw JSON
// result. params must be empty or valid JSON.
func LocalClient(
	ctx context.Context,
	cfg *config.Instance,
	method string,
	params string,
) (string, error) {
	id := json.RawMessage(strconv.Quote(uuid.New().String()))
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
	}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}

	c, err := dial(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var resp *models.ResponseObject

	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("error reading message")
				return
			}

			var m models.ResponseObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != "2.0" {
				log.Warn().Msg("invalid jsonrpc version")
				continue
			}
			if string(m.ID) != string(id) {
				continue
			}

			resp = &m
			return
		}
	}()

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	timeout, stop := timeoutChan(0)
	defer stop()

	select {
	case <-done:
	case <-timeout:
		closeConn(c)
		return "", ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		return "", ErrRequestCancelled
	}

	if resp == nil {
		return "", ErrRequestTimeout
	}
	if resp.Error != nil {
		return "", errors.New(resp.Error.Message)
	}

	b, err := json.Marshal(resp.Result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(b), nil
}

// WaitNotifications blocks until a notification with one of methods arrives
// and returns its method and raw params.
func WaitNotifications(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	methods ...string,
) (method, params string, err error) {
	c, err := dial(ctx, cfg)
	if err != nil {
		return "", "", err
	}
	defer closeConn(c)

	done := make(chan struct{})
	var notif *models.RequestObject

	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("error reading message")
				return
			}

			var m models.RequestObject
			if err := json.Unmarshal(message, &m); err != nil {
				continue
			}
			if m.JSONRPC != "2.0" {
				log.Warn().Msg("invalid jsonrpc version")
				continue
			}
			// requests and responses carry an id
			if len(m.ID) > 0 {
				continue
			}
			if !slices.Contains(methods, m.Method) {
				continue
			}

			notif = &m
			return
		}
	}()

	timer, stop := timeoutChan(timeout)
	defer stop()

	select {
	case <-done:
	case <-timer:
		closeConn(c)
		return "", "", ErrRequestTimeout
	case <-ctx.Done():
		closeConn(c)
		return "", "", ErrRequestCancelled
	}

	if notif == nil {
		return "", "", ErrRequestTimeout
	}
	if len(notif.Params) == 0 {
		return notif.Method, "null", nil
	}
	return notif.Method, string(notif.Params), nil
}

// WaitNotification blocks until a notification of the given method arrives
// and returns its raw params.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	method string,
) (string, error) {
	_, params, err := WaitNotifications(ctx, timeout, cfg, method)
	return params, err
}

// IsServiceRunning reports whether a daemon answers version requests.
func IsServiceRunning(cfg *config.Instance) bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := LocalClient(ctx, cfg, models.MethodVersion, "")
	return err == nil
}

// WaitForAPI polls the daemon every interval until it answers or ctx is
// done.
func WaitForAPI(ctx context.Context, cfg *config.Instance, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if IsServiceRunning(cfg) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("api not ready: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
