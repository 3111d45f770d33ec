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

package broker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mlmaid/mlmaid-core/pkg/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startBroker(t *testing.T, buffer int) (*Broker, chan models.Notification) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan models.Notification, buffer)
	b := NewBroker(ctx, source)
	b.Start()
	t.Cleanup(func() {
		cancel()
		<-b.Done()
	})
	return b, source
}

func receive(t *testing.T, ch <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n, ok := <-ch:
		require.True(t, ok, "subscriber channel closed")
		return n
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func TestBroker_SubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	b, _ := startBroker(t, 1)

	ch, id := b.Subscribe(10)
	_, id2 := b.Subscribe(10)
	assert.Equal(t, 0, id)
	assert.Equal(t, 1, id2)
	assert.Equal(t, 2, b.SubscriberCount())

	b.Unsubscribe(id)
	b.Unsubscribe(id)
	assert.Equal(t, 1, b.SubscriberCount())

	_, ok := <-ch
	assert.False(t, ok, "unsubscribed channel should be closed")
}

func TestBroker_BroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	b, source := startBroker(t, 10)
	subs := make([]<-chan models.Notification, 3)
	for i := range subs {
		subs[i], _ = b.Subscribe(10)
	}

	source <- models.Notification{
		Method: models.NotificationSessionEnded,
		Params: []byte(`{"gameId":"hk"}`),
	}

	for _, sub := range subs {
		n := receive(t, sub)
		assert.Equal(t, models.NotificationSessionEnded, n.Method)
		assert.JSONEq(t, `{"gameId":"hk"}`, string(n.Params))
	}
}

func TestBroker_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	b, source := startBroker(t, 100)
	fast, _ := b.Subscribe(20)
	_, _ = b.Subscribe(1)

	for range 20 {
		source <- models.Notification{Method: models.NotificationGameLaunched}
	}

	for range 20 {
		receive(t, fast)
	}
}

func TestBroker_DropsWhenSubscriberFull(t *testing.T) {
	t.Parallel()

	b, source := startBroker(t, 100)
	sub, _ := b.Subscribe(2)
	marker, _ := b.Subscribe(20)

	for range 10 {
		source <- models.Notification{Method: models.NotificationGameLaunched}
	}
	// the marker subscriber has room for everything, so once it has all ten
	// the broker has attempted every send to sub
	for range 10 {
		receive(t, marker)
	}

	assert.Len(t, sub, 2)
}

func TestBroker_SessionEndedWaitsForRoom(t *testing.T) {
	t.Parallel()

	b, source := startBroker(t, 10)
	sub, _ := b.Subscribe(1)

	source <- models.Notification{Method: models.NotificationGameLaunched}
	source <- models.Notification{Method: models.NotificationSessionEnded}

	time.Sleep(endedWait / 4)
	assert.Equal(t, models.NotificationGameLaunched, receive(t, sub).Method)
	assert.Equal(t, models.NotificationSessionEnded, receive(t, sub).Method)
}

func TestBroker_SessionEndedDroppedAfterWait(t *testing.T) {
	t.Parallel()

	b, source := startBroker(t, 10)
	sub, _ := b.Subscribe(1)
	marker, _ := b.Subscribe(10)

	source <- models.Notification{Method: models.NotificationGameLaunched}
	source <- models.Notification{Method: models.NotificationSessionEnded}

	receive(t, marker)
	receive(t, marker)
	// the broadcast gives up on sub at most endedWait after it started
	time.Sleep(2 * endedWait)

	assert.Equal(t, models.NotificationGameLaunched, receive(t, sub).Method)
	select {
	case n := <-sub:
		t.Fatalf("unexpected notification %q", n.Method)
	case <-time.After(endedWait):
	}
}

func TestBroker_InOrderDelivery(t *testing.T) {
	t.Parallel()

	b, source := startBroker(t, 10)
	sub, _ := b.Subscribe(10)

	methods := []string{"one", "two", "three", "four"}
	for _, m := range methods {
		source <- models.Notification{Method: m}
	}
	for _, m := range methods {
		assert.Equal(t, m, receive(t, sub).Method)
	}
}

func TestBroker_ContextCancellationClosesSubscribers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroker(ctx, make(chan models.Notification))
	b.Start()
	sub, _ := b.Subscribe(1)

	cancel()
	<-b.Done()

	_, ok := <-sub
	assert.False(t, ok)
	assert.Zero(t, b.SubscriberCount())
}

func TestBroker_SourceClosureClosesSubscribers(t *testing.T) {
	t.Parallel()

	source := make(chan models.Notification)
	b := NewBroker(context.Background(), source)
	b.Start()
	sub, _ := b.Subscribe(1)

	close(source)
	<-b.Done()

	_, ok := <-sub
	assert.False(t, ok)
}

func TestBroker_ConcurrentSubscribeUnsubscribe(t *testing.T) {
	t.Parallel()

	b, source := startBroker(t, 100)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, id := b.Subscribe(5)
			time.Sleep(5 * time.Millisecond)
			b.Unsubscribe(id)
		}()
	}
	for range 20 {
		source <- models.Notification{Method: "session.ended"}
	}
	wg.Wait()

	assert.Zero(t, b.SubscriberCount())
}
