package sse

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Event is one server-sent event delivered to connected dashboards
type Event struct {
	Name string      `json:"name"`
	Data interface{} `json:"data"`
}

// Manager fans out events to every connected SSE client. The caregiver
// dashboard subscribes once and receives task and scan updates as they
// happen.
type Manager struct {
	mu      sync.RWMutex
	clients map[chan Event]struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[chan Event]struct{}),
	}
}

// Broadcast delivers an event to all connected clients. Slow clients are
// skipped rather than blocking the sender.
func (m *Manager) Broadcast(name string, data interface{}) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	event := Event{Name: name, Data: data}
	for ch := range m.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) subscribe() chan Event {
	ch := make(chan Event, 16)
	m.mu.Lock()
	m.clients[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

func (m *Manager) unsubscribe(ch chan Event) {
	m.mu.Lock()
	delete(m.clients, ch)
	m.mu.Unlock()
	close(ch)
}

// HandleSSE is the gin handler for GET /api/events. It streams events until
// the client disconnects, with a periodic keepalive comment.
func (m *Manager) HandleSSE(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ch := m.subscribe()
	defer m.unsubscribe(ch)

	log.Printf("[SSE] Client connected (%d active)", m.ClientCount())

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event := <-ch:
			payload, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Name, payload)
			c.Writer.Flush()

		case <-keepalive.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			log.Printf("[SSE] Client disconnected (%d active)", m.ClientCount()-1)
			return
		}
	}
}
