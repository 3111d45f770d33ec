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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlmaid/mlmaid-core/internal/telemetry"
	"github.com/mlmaid/mlmaid-core/pkg/api/client"
	"github.com/mlmaid/mlmaid-core/pkg/cli"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/service"
	"github.com/rs/zerolog/log"
)

const apiReadyTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		telemetry.Flush()
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	flags := cli.SetupFlags(fs)

	exit, err := flags.Pre(os.Args[1:], os.Stdout)
	if err != nil || exit {
		return err
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(config.BaseDefaults, logWriters)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	if handled, err := flags.Post(cfg, os.Stdout); handled {
		return err
	}

	if !*flags.Daemon {
		fs.SetOutput(os.Stderr)
		fs.Usage()
		return nil
	}

	if client.IsServiceRunning(cfg) {
		return fmt.Errorf("service already running on %s", cfg.APIListen())
	}

	svc, err := service.Start(cfg, service.Options{})
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		return fmt.Errorf("error starting service: %w", err)
	}
	log.Info().Msg("started in daemon mode")

	readyCtx, cancelReady := context.WithTimeout(context.Background(), apiReadyTimeout)
	err = client.WaitForAPI(readyCtx, cfg, 100*time.Millisecond)
	cancelReady()
	if err != nil {
		log.Warn().Err(err).Str("listen", cfg.APIListen()).Msg("api is not answering")
	} else {
		log.Info().Str("listen", cfg.APIListen()).Msg("api ready")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-svc.Done():
	}

	if err := svc.Stop(); err != nil {
		log.Error().Err(err).Msg("error stopping service")
		return fmt.Errorf("error stopping service: %w", err)
	}
	return nil
}
