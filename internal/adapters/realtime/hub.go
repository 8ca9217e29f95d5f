// Package realtime pushes events to connected WebSocket clients grouped in rooms.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/mealplan-service/pkg/encoding"
)

const sendBuffer = 64

// Envelope is the frame written to clients
type Envelope struct {
	Event   string      `json:"event"`
	Room    string      `json:"room"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sent_at"`
}

// Client is one connection joined to one room
type Client struct {
	Room string
	Send chan []byte
}

// NewClient creates a client with a buffered outbox
func NewClient(room string) *Client {
	return &Client{Room: room, Send: make(chan []byte, sendBuffer)}
}

type broadcastMsg struct {
	room string
	data []byte
}

// Hub fans frames out to the clients of a room. Run must be started before Push.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewHub creates an idle hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until Stop
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for room, clients := range h.rooms {
				for c := range clients {
					close(c.Send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.drop(c)
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.room] {
				select {
				case c.Send <- m.data:
				default:
					h.logger.Warn("Dropping slow realtime client", zap.String("room", m.room))
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes c and closes its outbox. Caller holds mu.
func (h *Hub) drop(c *Client) {
	clients := h.rooms[c.Room]
	if !clients[c] {
		return
	}
	delete(clients, c)
	close(c.Send)
	if len(clients) == 0 {
		delete(h.rooms, c.Room)
	}
}

// Stop ends Run and closes every client outbox
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Join registers c with the hub
func (h *Hub) Join(ctx context.Context, c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return fmt.Errorf("realtime hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave unregisters c; safe to call after the hub dropped it
func (h *Hub) Leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Connected returns the number of clients in room
func (h *Hub) Connected(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Push implements ports.PushSink. An empty room is not an error.
func (h *Hub) Push(ctx context.Context, room, event string, payload interface{}) error {
	data, err := encoding.Marshal(Envelope{Event: event, Room: room, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	select {
	case <-h.done:
		return fmt.Errorf("realtime hub stopped")
	default:
	}

	select {
	case h.broadcast <- broadcastMsg{room: room, data: data}:
		return nil
	case <-h.done:
		return fmt.Errorf("realtime hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}
