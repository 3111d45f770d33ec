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

// Package helpers provides testing utilities for API operations.
//
// These helpers speak JSON-RPC 2.0 to a running API router over WebSocket
// or HTTP POST.
//
// Example usage:
//
//	func TestVersion(t *testing.T) {
//		h := helpers.NewHTTPTestHelper(router)
//		defer h.Close()
//
//		resp, err := h.CallJSONRPC("version", nil)
//		require.NoError(t, err)
//		helpers.AssertJSONRPCSuccess(t, resp)
//	}
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

// APIPath is where the API router serves both transports.
const APIPath = "/api"

// JSONRPCRequest represents a JSON-RPC request for testing
type JSONRPCRequest struct {
	Params  any             `json:"params,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	ID      json.RawMessage `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response for testing
type JSONRPCResponse struct {
	Error   *models.ErrorObject `json:"error,omitempty"`
	JSONRPC string              `json:"jsonrpc"`
	Result  json.RawMessage     `json:"result,omitempty"`
	ID      json.RawMessage     `json:"id"`
}

// WebSocketTestServer is a bare melody hub on APIPath, for testing clients
// against scripted server behaviour.
type WebSocketTestServer struct {
	Server *httptest.Server
	Melody *melody.Melody
}

// NewWebSocketTestServer creates a new WebSocket test server. A nil handler
// ignores incoming messages.
func NewWebSocketTestServer(t *testing.T, handler func(*melody.Session, []byte)) *WebSocketTestServer {
	t.Helper()
	m := melody.New()
	if handler != nil {
		m.HandleMessage(handler)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(APIPath, func(w http.ResponseWriter, r *http.Request) {
		if err := m.HandleRequest(w, r); err != nil {
			log.Debug().Err(err).Msg("websocket test server request")
		}
	})

	return &WebSocketTestServer{
		Server: httptest.NewServer(mux),
		Melody: m,
	}
}

// Close shuts down the test server
func (wsts *WebSocketTestServer) Close() {
	_ = wsts.Melody.Close()
	wsts.Server.Close()
}

// Port returns the port the test server listens on.
func (wsts *WebSocketTestServer) Port(t *testing.T) int {
	t.Helper()
	u, err := url.Parse(wsts.Server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

// NewJSONRPCRequest builds a request with a fresh quoted uuid id.
func NewJSONRPCRequest(method string, params any) JSONRPCRequest {
	return JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(strconv.Quote(uuid.New().String())),
		Method:  method,
		Params:  params,
	}
}

// DialWebSocket opens a WebSocket to the API path of an httptest server.
func DialWebSocket(ctx context.Context, serverURL string) (*websocket.Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server URL: %w", err)
	}
	u.Scheme = "ws"
	u.Path = APIPath

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial WebSocket: %w", err)
	}
	return conn, nil
}

// SendJSONRPCRequest sends a JSON-RPC request and returns the response
func SendJSONRPCRequest(conn *websocket.Conn, method string, params any) (*JSONRPCResponse, error) {
	requestData, err := json.Marshal(NewJSONRPCRequest(method, params))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, requestData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, responseData, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var response JSONRPCResponse
	if err := json.Unmarshal(responseData, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &response, nil
}

// ReadNotification reads the next message as a JSON-RPC notification.
func ReadNotification(conn *websocket.Conn, timeout time.Duration) (*models.NotificationObject, error) {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read notification: %w", err)
	}
	var notif models.NotificationObject
	if err := json.Unmarshal(data, &notif); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return &notif, nil
}

// AssertJSONRPCSuccess verifies a JSON-RPC response was successful
func AssertJSONRPCSuccess(t *testing.T, response *JSONRPCResponse) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.Nil(t, response.Error, "response should not contain an error")
	require.NotEmpty(t, response.Result, "response should contain a result")
}

// AssertJSONRPCError verifies a JSON-RPC response contains an error
func AssertJSONRPCError(t *testing.T, response *JSONRPCResponse, expectedCode int) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.NotNil(t, response.Error, "response should contain an error")
	require.Equal(t, expectedCode, response.Error.Code, "error code should match")
}

// HTTPTestHelper provides utilities for testing HTTP API endpoints
type HTTPTestHelper struct {
	Server *httptest.Server
	Client *http.Client
}

// NewHTTPTestHelper creates a new HTTP test helper with the given handler
func NewHTTPTestHelper(handler http.Handler) *HTTPTestHelper {
	server := httptest.NewServer(handler)
	return &HTTPTestHelper{
		Server: server,
		Client: server.Client(),
	}
}

// Close shuts down the test server
func (h *HTTPTestHelper) Close() {
	h.Server.Close()
}

// PostRaw posts body to the API path with the given content type.
func (h *HTTPTestHelper) PostRaw(contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		h.Server.URL+APIPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send POST request: %w", err)
	}
	return resp, nil
}

// CallJSONRPC posts a request and decodes the JSON-RPC response.
func (h *HTTPTestHelper) CallJSONRPC(method string, params any) (*JSONRPCResponse, error) {
	requestData, err := json.Marshal(NewJSONRPCRequest(method, params))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := h.PostRaw("application/json", requestData)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var response JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response, nil
}
