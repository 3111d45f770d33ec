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

// Package service wires the databases, session monitor, notification broker
// and API server into a running daemon.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mlmaid/mlmaid-core/pkg/api"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/database"
	"github.com/mlmaid/mlmaid-core/pkg/database/metadb"
	"github.com/mlmaid/mlmaid-core/pkg/database/statsdb"
	"github.com/mlmaid/mlmaid-core/pkg/helpers"
	"github.com/mlmaid/mlmaid-core/pkg/helpers/command"
	"github.com/mlmaid/mlmaid-core/pkg/procinspect"
	"github.com/mlmaid/mlmaid-core/pkg/service/broker"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
	"github.com/mlmaid/mlmaid-core/pkg/service/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	notificationQueueSize = 100
	subscriberBufferSize  = 100
)

// Options override the pieces Start would otherwise build from config.
// The zero value runs a full daemon.
type Options struct {
	Inspector  procinspect.Inspector
	Spawner    command.Spawner
	Registerer prometheus.Registerer
	DataDir    string
	// NoAPI skips the API server, for in-process launches from the CLI.
	NoAPI bool
}

// Service is a running daemon.
type Service struct {
	err     error
	db      *database.Database
	monitor *monitor.Monitor
	cancel  context.CancelFunc
	ready   chan struct{}
	done    chan struct{}
	once    sync.Once
}

func setupEnvironment(dataDir string) error {
	if _, ok := helpers.HasUserDir(); ok {
		log.Info().Msg("using 'user' directory for storage")
	}

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dataDir, err)
	}
	return nil
}

func makeDatabase(ctx context.Context, dataDir string) (*database.Database, error) {
	db := &database.Database{}

	log.Debug().Msg("opening stats database")
	statsDB, err := statsdb.OpenStatsDB(ctx, dataDir)
	if err != nil {
		return db, fmt.Errorf("failed to open stats database: %w", err)
	}
	db.StatsDB = statsDB

	log.Debug().Msg("running stats database migrations")
	if err := statsDB.MigrateUp(); err != nil {
		return db, fmt.Errorf("error migrating statsdb: %w", err)
	}

	log.Debug().Msg("opening metadata database")
	metaDB, err := metadb.OpenMetaDB(ctx, dataDir)
	if err != nil {
		return db, fmt.Errorf("failed to open metadata database: %w", err)
	}
	db.MetaDB = metaDB

	log.Debug().Msg("running metadata database migrations")
	if err := metaDB.MigrateUp(); err != nil {
		return db, fmt.Errorf("error migrating metadb: %w", err)
	}

	return db, nil
}

func closeDatabase(db *database.Database) {
	if db.StatsDB != nil {
		if err := db.StatsDB.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing stats database")
		}
	}
	if db.MetaDB != nil {
		if err := db.MetaDB.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing metadata database")
		}
	}
}

// reportOpenSessions logs sessions a previous run never closed. They are
// left as they are.
func reportOpenSessions(db *database.Database) {
	open, err := db.StatsDB.GetOpenSessions()
	if err != nil {
		log.Warn().Err(err).Msg("error checking for open sessions")
		return
	}
	for i := range open {
		log.Warn().
			Int64("sessionId", open[i].DBID).
			Str("gameId", open[i].GameID).
			Time("start", open[i].StartTime).
			Msg("session from a previous run was never closed")
	}
}

// Start opens the databases and starts the monitor and API server. The
// returned service runs until Stop is called or the API server fails.
//
//nolint:gocritic // options struct passed by value for call-site clarity
func Start(cfg *config.Instance, opts Options) (*Service, error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = helpers.DataDir()
	}
	if err := setupEnvironment(dataDir); err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	log.Info().Msg("opening databases")
	db, err := makeDatabase(ctx, dataDir)
	if err != nil {
		log.Error().Err(err).Msg("error opening databases")
		closeDatabase(db)
		cancel()
		return nil, err
	}
	reportOpenSessions(db)

	if cfg.MetricsEnabled() {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		if err := metrics.Register(reg); err != nil {
			log.Error().Err(err).Msg("error registering metrics")
		}
	}

	ns := make(chan models.Notification, notificationQueueSize)
	notifBroker := broker.NewBroker(ctx, ns)
	notifBroker.Start()

	inspector := opts.Inspector
	if inspector == nil {
		inspector = procinspect.New(cfg.Inspector(), &command.RealExecutor{}, cfg.QueryTimeout())
	}
	log.Info().Str("inspector", cfg.Inspector()).Msg("starting session monitor")

	var monOpts []monitor.Option
	if opts.Spawner != nil {
		monOpts = append(monOpts, monitor.WithSpawner(opts.Spawner))
	}
	mon := monitor.NewMonitor(cfg, db.StatsDB, db.MetaDB, inspector, ns, monOpts...)

	if err := cfg.Watch(ctx, func() {
		log.Info().
			Str("ceilingPolicy", cfg.CeilingPolicy()).
			Str("inspector", cfg.Inspector()).
			Msg("config reloaded, new values apply to the next launch")
	}); err != nil {
		log.Warn().Err(err).Msg("config hot reload unavailable")
	}

	svc := &Service{
		db:      db,
		monitor: mon,
		cancel:  cancel,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	if opts.NoAPI {
		close(svc.ready)
	} else {
		log.Info().Msg("starting API service")
		apiNotifications, _ := notifBroker.Subscribe(subscriberBufferSize)
		g.Go(func() error {
			return api.Start(gctx, cfg, db, mon, apiNotifications, svc.ready)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	go func() {
		err := g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("service failed")
			svc.err = err
		}
		cancel()

		log.Info().Msg("service context cancelled, running cleanup")
		mon.Stop()
		<-notifBroker.Done()
		closeDatabase(db)
		log.Info().Msg("service cleanup completed")
		close(svc.done)
	}()

	return svc, nil
}

// Monitor is the running session monitor.
func (s *Service) Monitor() *monitor.Monitor {
	return s.monitor
}

// Database is the service's open databases.
func (s *Service) Database() *database.Database {
	return s.db
}

// Ready is closed once the API accepts connections.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed once the service has shut down.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Err is the error that stopped the service, valid after Done is closed.
func (s *Service) Err() error {
	<-s.done
	return s.err
}

// Stop shuts the service down and waits for cleanup. Sessions still being
// monitored are abandoned with their rows left open.
func (s *Service) Stop() error {
	s.once.Do(s.cancel)
	return s.Err()
}
