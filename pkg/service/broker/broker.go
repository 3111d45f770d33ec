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

// Package broker fans notifications from the monitor out to every API
// client without letting a slow client hold up the others.
package broker

import (
	"context"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/mlmaid/mlmaid-core/pkg/helpers/syncutil"
	"github.com/mlmaid/mlmaid-core/pkg/service/metrics"
	"github.com/rs/zerolog/log"
)

// endedWait bounds how long a full subscriber may hold up a session.ended
// notification before it is dropped for that subscriber.
const endedWait = 100 * time.Millisecond

// Broker reads notifications from a source channel and copies each one to
// all subscribers. Sends never block, except that a session.ended
// notification waits up to endedWait for room: it is the only record a
// client gets of the final play time.
type Broker struct {
	ctx         context.Context
	source      <-chan models.Notification
	subscribers map[int]chan models.Notification
	done        chan struct{}
	mu          syncutil.RWMutex
	nextID      int
}

func NewBroker(ctx context.Context, source <-chan models.Notification) *Broker {
	return &Broker{
		ctx:         ctx,
		source:      source,
		subscribers: make(map[int]chan models.Notification),
		done:        make(chan struct{}),
	}
}

// Start runs the broadcast loop in a goroutine. The loop ends when the
// source channel closes or the context is cancelled; all subscriber
// channels are closed on the way out.
func (b *Broker) Start() {
	go func() {
		defer close(b.done)
		for {
			select {
			case notif, ok := <-b.source:
				if !ok {
					log.Debug().Msg("broker: source channel closed")
					b.closeAllSubscribers()
					return
				}
				b.broadcast(notif)
			case <-b.ctx.Done():
				log.Debug().Msg("broker: context cancelled, shutting down")
				b.closeAllSubscribers()
				return
			}
		}
	}()
}

// Done is closed once the broadcast loop has exited.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

func (b *Broker) broadcast(notif models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var timer *time.Timer
	if notif.Method == models.NotificationSessionEnded {
		timer = time.NewTimer(endedWait)
		defer timer.Stop()
	}

	for id, ch := range b.subscribers {
		if b.send(ch, notif, timer) {
			continue
		}
		metrics.IncNotificationDropped(notif.Method)
		log.Warn().
			Int("subscriber_id", id).
			Str("method", notif.Method).
			Msg("broker: subscriber channel full, dropping notification")
	}
}

// send delivers to one subscriber. With a timer it waits until the timer
// fires, which is shared so one broadcast waits at most endedWait in total.
func (b *Broker) send(ch chan models.Notification, notif models.Notification, timer *time.Timer) bool {
	select {
	case ch <- notif:
		return true
	default:
	}
	if timer == nil {
		return false
	}
	select {
	case ch <- notif:
		return true
	case <-timer.C:
		return false
	case <-b.ctx.Done():
		return false
	}
}

// Subscribe registers a subscriber with room for bufferSize queued
// notifications. The returned id is used to unsubscribe.
func (b *Broker) Subscribe(bufferSize int) (notifChan <-chan models.Notification, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++

	ch := make(chan models.Notification, bufferSize)
	b.subscribers[id] = ch

	log.Debug().
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Msg("broker: new subscriber registered")

	return ch, id
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids
// are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("broker: subscriber unsubscribed")
	}
}

func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

func (b *Broker) closeAllSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		log.Debug().Int("subscriber_id", id).Msg("broker: closed subscriber channel on shutdown")
	}
	b.subscribers = make(map[int]chan models.Notification)
}
