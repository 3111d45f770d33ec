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

package notifications

import (
	"encoding/json"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
	"github.com/rs/zerolog/log"
)

// sendNotification marshals payload and queues it without blocking. A full
// or nil channel drops the notification: the monitor must never stall on a
// slow listener.
func sendNotification(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}

	var params json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("failed to marshal notification payload")
			return
		}
		params = b
	}

	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		metrics.IncNotificationDropped(method)
		log.Warn().Str("method", method).Msg("notification channel full, dropping notification")
	}
}

func GameLaunched(ns chan<- models.Notification, payload models.GameLaunchedPayload) {
	sendNotification(ns, models.NotificationGameLaunched, payload)
}

func SessionEnded(ns chan<- models.Notification, payload models.SessionEndedPayload) {
	sendNotification(ns, models.NotificationSessionEnded, payload)
}
