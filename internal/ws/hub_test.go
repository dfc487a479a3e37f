package ws

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer close(hub.publish)

	conn := NewConn(nil, hub, "pat1")
	hub.Register(conn)
	hub.Subscribe(conn, "claim:c1")

	hub.Publish("claim:c1", map[string]interface{}{"event": "claim.filed"})

	select {
	case msg := <-conn.send:
		assert.Contains(t, string(msg), "claim.filed")
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestHubDropsConnectionWithFullBuffer(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer close(hub.publish)

	conn := NewConn(nil, hub, "pat1")
	hub.Register(conn)
	hub.Subscribe(conn, "claim:c1")

	// A connection that never drains its buffer gets dropped
	for i := 0; i < cap(conn.send); i++ {
		conn.send <- []byte("backlog")
	}
	hub.Publish("claim:c1", map[string]interface{}{"event": "claim.filed"})

	assert.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return !hub.conns[conn]
	}, time.Second, 10*time.Millisecond)
}

func TestHubFanOutSurvivesConcurrentUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer close(hub.publish)

	const channel = "claim:c1"
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		conn := NewConn(nil, hub, fmt.Sprintf("pat%d", i))
		hub.Register(conn)
		hub.Subscribe(conn, channel)

		delay := time.Duration(i%5) * time.Millisecond
		wg.Add(2)
		go func(c *Conn) {
			defer wg.Done()
			for range c.send {
			}
		}(conn)
		go func(c *Conn) {
			defer wg.Done()
			time.Sleep(delay)
			hub.unregister(c)
		}(conn)
	}

	for i := 0; i < 200; i++ {
		hub.Publish(channel, map[string]interface{}{"seq": i})
	}

	wg.Wait()

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.conns)
	assert.Empty(t, hub.subs)
}
