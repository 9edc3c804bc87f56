package realtime

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Event is what SSE subscribers receive.
type Event struct {
	Path    string      `json:"path"`
	Payload interface{} `json:"payload"`
}

type subscriber struct {
	prefixes []string
	events   chan Event
}

func (s *subscriber) wants(path string) bool {
	for _, p := range s.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Hub is an in-process sink serving Server-Sent Events. Slow subscribers
// miss events rather than blocking publishers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	buffer      int
	keepAlive   time.Duration
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		buffer:      16,
		keepAlive:   25 * time.Second,
	}
}

// Subscribe registers interest in every path under the given prefixes.
func (h *Hub) Subscribe(prefixes ...string) (string, <-chan Event) {
	id := uuid.New().String()
	sub := &subscriber{prefixes: prefixes, events: make(chan Event, h.buffer)}

	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()
	return id, sub.events
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subscribers[id]; ok {
		close(sub.events)
		delete(h.subscribers, id)
	}
}

func (h *Hub) Publish(_ context.Context, path string, payload interface{}) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		if !sub.wants(path) {
			continue
		}
		select {
		case sub.events <- Event{Path: path, Payload: payload}:
		default:
		}
	}
	return nil
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Serve streams events under prefixes to the client until it disconnects.
func (h *Hub) Serve(c *gin.Context, prefixes ...string) {
	id, events := h.Subscribe(prefixes...)
	defer h.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"subscription": id})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case evt, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("update", evt)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
