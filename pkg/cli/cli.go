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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mlmaid/mlmaid-core/internal/telemetry"
	"github.com/mlmaid/mlmaid-core/pkg/api/client"
	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/config"
	"github.com/mlmaid/mlmaid-core/pkg/helpers"
	"github.com/mlmaid/mlmaid-core/pkg/service"
	"github.com/mlmaid/mlmaid-core/pkg/service/monitor"
	"github.com/rs/zerolog/log"
)

var ErrServiceNotRunning = errors.New("service is not running")

type Flags struct {
	set     *flag.FlagSet
	Launch  *string
	Exe     *string
	Method  *string
	Mode    *string
	Names   *string
	WorkDir *string
	API     *string
	Recent  *int
	Stats   *bool
	Watch   *bool
	Version *bool
	Daemon  *bool
}

// SetupFlags defines the CLI flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		set: fs,
		Launch: fs.String(
			"launch",
			"",
			"launch a game by id and wait until its session ends",
		),
		Exe: fs.String(
			"exe",
			"",
			"executable to launch (with -launch)",
		),
		Method: fs.String(
			"method",
			"direct",
			"launch method label recorded with the session (with -launch)",
		),
		Mode: fs.String(
			"mode",
			"",
			"monitoring mode: file, folder or process (with -launch)",
		),
		Names: fs.String(
			"names",
			"",
			"comma separated process names for process mode (with -launch)",
		),
		WorkDir: fs.String(
			"workdir",
			"",
			"working directory, defaults to the executable's (with -launch)",
		),
		API: fs.String(
			"api",
			"",
			"send method and params to API and print response",
		),
		Recent: fs.Int(
			"recent",
			0,
			"print the N most recent sessions from the running service",
		),
		Stats: fs.Bool(
			"stats",
			false,
			"print overall play statistics from the running service",
		),
		Watch: fs.Bool(
			"watch",
			false,
			"print sessions as the running service completes them",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run the service in the foreground",
		),
	}
}

func (f *Flags) isFlagPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that need no environment. It reports
// whether the program should exit.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.set.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *f.Version {
		_, _ = fmt.Fprintf(out, "ML Maid v%s\n", config.AppVersion)
		return true, nil
	}
	return false, nil
}

// LaunchRequest builds the request for -launch from the flags.
func (f *Flags) LaunchRequest(cfg *config.Instance) (models.LaunchRequest, error) {
	req := models.LaunchRequest{
		GameID:         *f.Launch,
		ExecutablePath: *f.Exe,
		LaunchMethod:   *f.Method,
		WorkingDir:     *f.WorkDir,
	}
	if req.GameID == "" {
		return req, errors.New("launch flag requires a game id")
	}
	if req.ExecutablePath == "" {
		return req, errors.New("launch requires -exe")
	}

	modeName := *f.Mode
	if modeName == "" {
		modeName = cfg.DefaultMonitorMode()
	}
	mode, err := models.ParseMonitoringMode(modeName)
	if err != nil {
		return req, fmt.Errorf("invalid mode: %w", err)
	}
	req.Mode = mode

	for name := range strings.SplitSeq(*f.Names, ",") {
		if name = strings.TrimSpace(name); name != "" {
			req.ProcessNames = append(req.ProcessNames, name)
		}
	}
	return req, nil
}

// FormatOutcome is the line printed when a -launch session ends.
func FormatOutcome(gameID string, out *monitor.Outcome) string {
	status := "not counted"
	if out.Completed {
		status = "counted"
	}
	return fmt.Sprintf(
		"%s: session ended (%s), played %s, %s",
		gameID, out.Reason, time.Duration(out.DurationSec)*time.Second, status,
	)
}

// launchInProcess runs a private monitor and blocks until the session ends
// or the user interrupts it.
func launchInProcess(cfg *config.Instance, req models.LaunchRequest, out io.Writer) error {
	svc, err := service.Start(cfg, service.Options{NoAPI: true})
	if err != nil {
		return fmt.Errorf("error starting monitor: %w", err)
	}
	defer func() {
		if stopErr := svc.Stop(); stopErr != nil {
			log.Error().Err(stopErr).Msg("error stopping monitor")
		}
	}()

	res, err := svc.Monitor().Launch(req)
	if err != nil {
		return fmt.Errorf("error launching: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s: launched as pid %d\n", req.GameID, res.PID)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case outcome := <-res.Done:
		_, _ = fmt.Fprintln(out, FormatOutcome(req.GameID, &outcome))
		return nil
	case <-sigs:
		return errors.New("interrupted, session left open")
	}
}

// PrintStats fetches overall stats from the running service.
func PrintStats(ctx context.Context, api client.APIClient, out io.Writer) error {
	resp, err := api.Call(ctx, models.MethodStatsOverall, "")
	if err != nil {
		return fmt.Errorf("error getting stats: %w", err)
	}

	var stats models.OverallStatsResponse
	if err := json.Unmarshal([]byte(resp), &stats); err != nil {
		return fmt.Errorf("error decoding stats: %w", err)
	}

	sec := func(n int64) time.Duration { return time.Duration(n) * time.Second }
	_, _ = fmt.Fprintf(out, "Total play time: %s\n", sec(stats.TotalPlayTime))
	_, _ = fmt.Fprintf(out, "Sessions:        %d\n", stats.TotalSessions)
	_, _ = fmt.Fprintf(out, "Games played:    %d\n", stats.GamesPlayed)
	_, _ = fmt.Fprintf(out, "Today:           %s\n", sec(stats.TodayPlayTime))
	_, _ = fmt.Fprintf(out, "This week:       %s\n", sec(stats.WeekPlayTime))
	_, _ = fmt.Fprintf(out, "This month:      %s\n", sec(stats.MonthPlayTime))
	return nil
}

// PrintRecent fetches the most recent completed sessions.
func PrintRecent(ctx context.Context, api client.APIClient, limit int, out io.Writer) error {
	params, err := json.Marshal(models.RecentSessionsParams{Limit: &limit})
	if err != nil {
		return fmt.Errorf("error encoding params: %w", err)
	}
	resp, err := api.Call(ctx, models.MethodSessionsRecent, string(params))
	if err != nil {
		return fmt.Errorf("error getting sessions: %w", err)
	}

	var recent models.RecentSessionsResponse
	if err := json.Unmarshal([]byte(resp), &recent); err != nil {
		return fmt.Errorf("error decoding sessions: %w", err)
	}
	for i := range recent.Sessions {
		s := &recent.Sessions[i]
		_, _ = fmt.Fprintf(out, "%s  %-30s %s\n",
			s.StartTime.Local().Format(time.DateTime), s.Title,
			time.Duration(s.DurationSec)*time.Second)
	}
	return nil
}

// FormatSessionEnded is the line printed by -watch for each completed
// session.
func FormatSessionEnded(p *models.SessionEndedPayload) string {
	sec := func(n int64) time.Duration { return time.Duration(n) * time.Second }
	return fmt.Sprintf(
		"%s  %s played %s (total %s)",
		time.UnixMilli(p.EndTime).Local().Format(time.DateTime),
		p.GameID, sec(p.SessionSeconds), sec(p.TotalTimePlayed),
	)
}

// Watch prints completed sessions until ctx is cancelled.
func Watch(ctx context.Context, api client.APIClient, out io.Writer) error {
	for {
		ended, err := client.WaitSessionEnded(ctx, api, -1)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return fmt.Errorf("error waiting for sessions: %w", err)
		}
		_, _ = fmt.Fprintln(out, FormatSessionEnded(ended))
	}
}

// Post handles the flags that need config and logging. It reports whether
// a flag was handled, in which case the program should exit.
func (f *Flags) Post(cfg *config.Instance, out io.Writer) (bool, error) {
	ctx := context.Background()
	api := client.NewLocalAPIClient(cfg)

	switch {
	case f.isFlagPassed("launch"):
		req, err := f.LaunchRequest(cfg)
		if err != nil {
			return true, err
		}
		return true, launchInProcess(cfg, req, out)
	case *f.Stats:
		if !client.IsServiceRunning(cfg) {
			return true, ErrServiceNotRunning
		}
		return true, PrintStats(ctx, api, out)
	case *f.Recent > 0:
		if !client.IsServiceRunning(cfg) {
			return true, ErrServiceNotRunning
		}
		return true, PrintRecent(ctx, api, *f.Recent, out)
	case *f.Watch:
		if !client.IsServiceRunning(cfg) {
			return true, ErrServiceNotRunning
		}
		watchCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return true, Watch(watchCtx, api, out)
	case f.isFlagPassed("api"):
		if *f.API == "" {
			return true, errors.New("api flag requires a value")
		}

		ps := strings.SplitN(*f.API, ":", 2)
		method := ps[0]
		params := ""
		if len(ps) > 1 {
			params = ps[1]
		}

		resp, err := api.Call(ctx, method, params)
		if err != nil {
			log.Error().Err(err).Msg("error calling API")
			return true, fmt.Errorf("error calling API: %w", err)
		}
		_, _ = fmt.Fprintln(out, resp)
		return true, nil
	}
	return false, nil
}

// Setup initializes the user config and logging. Returns a user config object.
//
//nolint:gocritic // config struct copied for immutability
func Setup(defaultConfig config.Values, writers []io.Writer) (*config.Instance, error) {
	if err := helpers.InitLogging(helpers.LogDir(), writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	// Initialize error reporting (opt-in)
	if err := telemetry.Init(cfg); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}
