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

// Package api serves the JSON-RPC 2.0 API over WebSocket and HTTP POST.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mlmaid/mlmaid-core/pkg/api/methods"
	"github.com/mlmaid/mlmaid-core/pkg/api/middleware"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/api/models/requests"
	"github.com/mlmaid/mlmaid-core/pkg/api/validation"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
	"github.com/mlmaid/mlmaid-core/pkg/service/monitor"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const maxRequestSize = 1 << 20

var (
	JSONRPCErrorParseError = models.ErrorObject{
		Code:    -32700,
		Message: "Parse error",
	}
	JSONRPCErrorInvalidRequest = models.ErrorObject{
		Code:    -32600,
		Message: "Invalid Request",
	}
	JSONRPCErrorMethodNotFound = models.ErrorObject{
		Code:    -32601,
		Message: "Method not found",
	}
	JSONRPCErrorInvalidParams = models.ErrorObject{
		Code:    -32602,
		Message: "Invalid params",
	}
	JSONRPCErrorServerError = models.ErrorObject{
		Code:    -32000,
		Message: "Server error",
	}
)

// Handler runs one API method.
type Handler func(requests.RequestEnv) (any, error)

// MethodMap is the method name to handler table. Names are case
// insensitive.
type MethodMap struct {
	methods map[string]Handler
}

func NewMethodMap() *MethodMap {
	return &MethodMap{methods: make(map[string]Handler)}
}

// DefaultMethodMap holds every built-in method.
func DefaultMethodMap() *MethodMap {
	m := NewMethodMap()
	for name, fn := range map[string]Handler{
		models.MethodLaunch:         methods.HandleLaunch,
		models.MethodSessionsActive: methods.HandleSessionsActive,
		models.MethodSessionsRecent: methods.HandleSessionsRecent,
		models.MethodStatsOverall:   methods.HandleStatsOverall,
		models.MethodGamesAdd:       methods.HandleGamesAdd,
		models.MethodGamesGet:       methods.HandleGamesGet,
		models.MethodVersion:        methods.HandleVersion,
	} {
		if err := m.AddMethod(name, fn); err != nil {
			panic(err)
		}
	}
	return m
}

func (m *MethodMap) AddMethod(name string, fn Handler) error {
	key := strings.ToLower(name)
	if _, exists := m.methods[key]; exists {
		return fmt.Errorf("method already registered: %s", name)
	}
	m.methods[key] = fn
	return nil
}

func (m *MethodMap) GetMethod(name string) (Handler, bool) {
	fn, ok := m.methods[strings.ToLower(name)]
	return fn, ok
}

// deps is what request handlers are given.
type deps struct {
	ctx     context.Context
	cfg     *config.Instance
	db      *database.Database
	monitor requests.SessionMonitor
}

// errorFor maps a handler error to the JSON-RPC error sent to the client.
func errorFor(err error) models.ErrorObject {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, validation.ErrMissingParams),
		errors.Is(err, validation.ErrInvalidParams),
		errors.Is(err, monitor.ErrInvalidRequest),
		errors.Is(err, monitor.ErrExecutableNotFound),
		errors.Is(err, database.ErrGameNotFound):
		return models.ErrorObject{Code: JSONRPCErrorInvalidParams.Code, Message: err.Error()}
	default:
		return models.ErrorObject{Code: JSONRPCErrorServerError.Code, Message: err.Error()}
	}
}

// validID reports whether a request id is a string, number or null.
func validID(id json.RawMessage) bool {
	if len(id) == 0 {
		return true
	}
	switch id[0] {
	case '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	default:
		return bytes.Equal(id, []byte("null"))
	}
}

// processRequest handles one decoded message and returns the response to
// send, or nil for notifications.
func processRequest(methodMap *MethodMap, d *deps, remoteAddr string, msg []byte) any {
	if !json.Valid(msg) {
		return errorResponse(nil, JSONRPCErrorParseError)
	}

	var req models.RequestObject
	if err := json.Unmarshal(msg, &req); err != nil || req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, JSONRPCErrorInvalidRequest)
	}
	if !validID(req.ID) {
		return errorResponse(nil, JSONRPCErrorInvalidRequest)
	}
	if len(req.ID) == 0 {
		log.Debug().Str("method", req.Method).Msg("received notification, ignoring")
		return nil
	}

	fn, ok := methodMap.GetMethod(req.Method)
	if !ok {
		log.Warn().Str("method", req.Method).Msg("unknown method")
		return errorResponse(req.ID, JSONRPCErrorMethodNotFound)
	}

	log.Debug().Str("method", req.Method).RawJSON("id", req.ID).Msg("received request")
	result, err := fn(requests.RequestEnv{
		Context:  d.ctx,
		Config:   d.cfg,
		Database: d.db,
		Monitor:  d.monitor,
		Params:   req.Params,
		ID:       req.ID,
		IsLocal:  middleware.IsLoopbackAddr(remoteAddr),
	})
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Msg("request failed")
		return errorResponse(req.ID, errorFor(err))
	}

	return models.ResponseObject{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

func errorResponse(id json.RawMessage, e models.ErrorObject) models.ResponseErrorObject {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return models.ResponseErrorObject{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &e,
	}
}

func handleWSMessage(methodMap *MethodMap, d *deps) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		// heartbeat
		if bytes.Equal(msg, []byte("ping")) {
			if err := session.Write([]byte("pong")); err != nil {
				log.Error().Err(err).Msg("sending pong")
			}
			return
		}

		resp := processRequest(methodMap, d, session.Request.RemoteAddr, msg)
		if resp == nil {
			return
		}
		data, err := json.Marshal(resp)
		if err != nil {
			log.Error().Err(err).Msg("error marshalling response")
			return
		}
		if err := session.Write(data); err != nil {
			log.Error().Err(err).Msg("error sending response")
		}
	}
}

// handlePostRequest serves single JSON-RPC calls over HTTP. JSON-RPC errors
// still return HTTP 200 with the error in the body.
func handlePostRequest(methodMap *MethodMap, d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize+1))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if len(body) > maxRequestSize {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}

		resp := processRequest(methodMap, d, r.RemoteAddr, body)
		if resp == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("error writing response")
		}
	}
}

// broadcastNotifications sends every notification to all open sockets
// until ctx is done or the channel is closed.
func broadcastNotifications(ctx context.Context, m *melody.Melody, notifications <-chan models.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(models.NotificationObject{
				JSONRPC: "2.0",
				Method:  notif.Method,
				Params:  notif.Params,
			})
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			if err := m.Broadcast(data); err != nil {
				log.Error().Err(err).Str("method", notif.Method).Msg("broadcasting notification")
			}
		}
	}
}

func allowedOrigins(cfg *config.Instance) []string {
	return append([]string{
		"http://localhost:*",
		"http://127.0.0.1:*",
		"app://*",
	}, cfg.AllowedOrigins()...)
}

// NewRouter builds the HTTP API and the WebSocket hub behind it. The
// returned melody instance must be closed by the caller.
func NewRouter(
	ctx context.Context,
	cfg *config.Instance,
	db *database.Database,
	mon requests.SessionMonitor,
	methodMap *MethodMap,
) (http.Handler, *melody.Melody) {
	d := &deps{ctx: ctx, cfg: cfg, db: db, monitor: mon}

	limiter := middleware.NewIPRateLimiter()
	limiter.StartCleanup(ctx)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.NoCache)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(cfg.AllowedIPs())))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	ws := melody.New()
	ws.Config.MaxMessageSize = maxRequestSize
	ws.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	ws.HandleMessage(middleware.WebSocketRateLimitHandler(limiter, handleWSMessage(methodMap, d)))

	r.Group(func(r chi.Router) {
		r.Use(middleware.HTTPRateLimitMiddleware(limiter))
		r.Get("/api", func(w http.ResponseWriter, r *http.Request) {
			if err := ws.HandleRequest(w, r); err != nil {
				log.Error().Err(err).Msg("handling websocket request")
			}
		})
		r.With(chimiddleware.Timeout(config.APIRequestTimeout)).
			Post("/api", handlePostRequest(methodMap, d))
	})

	if cfg.MetricsEnabled() {
		r.Handle("/metrics", metrics.Handler())
	}

	return r, ws
}

// Start serves the API until ctx is cancelled. The listener is bound before
// Start returns a nil error through ready, so clients can connect as soon as
// ready is closed.
func Start(
	ctx context.Context,
	cfg *config.Instance,
	db *database.Database,
	mon requests.SessionMonitor,
	notifications <-chan models.Notification,
	ready chan<- struct{},
) error {
	handler, ws := NewRouter(ctx, cfg, db, mon, DefaultMethodMap())
	go broadcastNotifications(ctx, ws, notifications)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", cfg.APIListen())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.APIListen(), err)
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")
	if ready != nil {
		close(ready)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	if err := ws.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing websocket sessions")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}
