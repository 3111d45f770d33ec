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

// Package metrics exposes Prometheus collectors for the session monitor.
// Collectors are package level and only record once Register has been
// called, so packages can call the helpers unconditionally.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mlmaid"

var (
	regOK atomic.Bool

	sessionLaunches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "launches_total",
			Help:      "Number of successful game launches.",
		}, []string{"mode"},
	)
	sessionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state_transitions_total",
			Help:      "Number of session state machine transitions.",
		}, []string{"from", "to"},
	)
	sessionsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "finalized_total",
			Help:      "Number of finalized sessions by outcome.",
		}, []string{"mode", "outcome"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Duration of completed play sessions.",
			Buckets:   []float64{60, 300, 900, 1800, 3600, 7200, 14400, 28800, 43200},
		}, []string{"mode"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently being monitored.",
		},
	)
	inspectorQueries = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inspector",
			Name:      "query_duration_seconds",
			Help:      "Latency of process table queries.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"query"},
	)
	notificationsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "dropped_total",
			Help:      "Notifications dropped because a channel was full.",
		}, []string{"method"},
	)
)

// Register registers all collectors with r. It is safe to call multiple
// times; calls after the first success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		sessionLaunches,
		sessionTransitions,
		sessionsFinalized,
		sessionDuration,
		activeSessions,
		inspectorQueries,
		notificationsDropped,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err //nolint:wrapcheck // registry errors are descriptive
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default gatherer.
func Handler() http.Handler { return promhttp.Handler() }

func IncLaunch(mode string) {
	if regOK.Load() {
		sessionLaunches.WithLabelValues(mode).Inc()
	}
}

func RecordTransition(from, to string) {
	if regOK.Load() {
		sessionTransitions.WithLabelValues(from, to).Inc()
	}
}

// RecordFinalized counts a finalized session. Durations are only observed
// for completed sessions.
func RecordFinalized(mode, outcome string, completed bool, seconds int64) {
	if !regOK.Load() {
		return
	}
	sessionsFinalized.WithLabelValues(mode, outcome).Inc()
	if completed {
		sessionDuration.WithLabelValues(mode).Observe(float64(seconds))
	}
}

func SetActiveSessions(n int) {
	if regOK.Load() {
		activeSessions.Set(float64(n))
	}
}

func ObserveInspectorQuery(query string, seconds float64) {
	if regOK.Load() {
		inspectorQueries.WithLabelValues(query).Observe(seconds)
	}
}

func IncNotificationDropped(method string) {
	if regOK.Load() {
		notificationsDropped.WithLabelValues(method).Inc()
	}
}
