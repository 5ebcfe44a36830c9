package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"resume-match/internal/domain/match"
	"resume-match/internal/pkg/logging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case b := <-c.send:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func TestHub_DeliversOnlyToOwner(t *testing.T) {
	h := startHub(t)
	alice, bob := uuid.New(), uuid.New()
	ca := NewClient(h, nil, alice)
	cb := NewClient(h, nil, bob)
	h.Register(ca)
	h.Register(cb)
	assert.Equal(t, 2, h.ClientCount())

	score := 80.0
	rec := match.Record{ID: uuid.New(), OwnerID: alice, MatchScore: &score}
	NewNotifier(h).NotifyMatchCompleted(context.Background(), rec)

	var ev match.CompletedEvent
	require.NoError(t, json.Unmarshal(receive(t, ca), &ev))
	assert.Equal(t, match.EventMatchCompleted, ev.Type)
	assert.Equal(t, rec.ID, ev.MatchID)

	select {
	case <-cb.send:
		t.Fatal("bob received alice's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	h := NewHub(logging.Discard())
	c := NewClient(h, nil, uuid.New())
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)

	_, ok := <-c.send
	assert.False(t, ok)
	assert.Zero(t, h.ClientCount())
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h := NewHub(logging.Discard())
	user := uuid.New()
	c := NewClient(h, nil, user)
	h.Register(c)

	for i := 0; i < sendBuffer+1; i++ {
		h.deliver(message{userID: user, payload: []byte("x")})
	}
	assert.Zero(t, h.ClientCount())
}

func TestNilHubAndNotifierAreSafe(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(uuid.New(), nil) })
	assert.Zero(t, h.ClientCount())
	assert.NotPanics(t, func() { NewNotifier(nil).NotifyMatchCompleted(context.Background(), match.Record{}) })
}

func TestHub_DeliverRacesUnregisterSafely(t *testing.T) {
	h := NewHub(logging.Discard())
	user := uuid.New()
	clients := make([]*Client, 64)
	for i := range clients {
		clients[i] = NewClient(h, nil, user)
		h.Register(clients[i])
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h.deliver(message{userID: user, payload: []byte("x")})
			}
		}()
	}
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			h.Unregister(c)
		}(c)
	}

	wg.Wait()
	assert.Zero(t, h.ClientCount())
	for _, c := range clients {
		for range c.send {
		}
	}
}
