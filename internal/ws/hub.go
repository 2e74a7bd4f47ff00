package ws

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/playmatatu/carrom/internal/game"
)

// Hub tracks the connections watching each match.
type Hub struct {
	rooms      map[string]map[*Client]struct{} // matchID -> clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *log.Logger
	mu         sync.RWMutex
}

// NewHub creates a hub. Call Run to start serving registrations.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.WithPrefix("[WS]"),
	}
}

// Run processes registrations until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.matchID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.matchID] = room
	}
	room[c] = struct{}{}
	close(c.registered)
	h.logger.Info("Client connected", "match", c.matchID, "seat", c.seat, "room_size", len(room))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.matchID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.matchID)
	}
	h.logger.Info("Client disconnected", "match", c.matchID, "seat", c.seat)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, id)
	}
}

// join and leave hand a client to Run, giving up once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		<-c.registered
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// sendTo queues a message for one client if it is still registered.
func (h *Hub) sendTo(c *Client, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", "match", c.matchID, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[c.matchID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("Send buffer full, dropping message", "match", c.matchID, "seat", c.seat)
	}
}

// RoomSize returns the number of connections watching a match.
func (h *Hub) RoomSize(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[matchID])
}

// BroadcastToMatch sends message to every connection watching a match. Slow
// clients drop messages rather than stall the sender.
func (h *Hub) BroadcastToMatch(matchID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", "match", matchID, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[matchID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Send buffer full, dropping message", "match", matchID, "seat", c.seat)
		}
	}
}

// Deliver forwards a match event to local connections.
func (h *Hub) Deliver(ev game.MatchEvent) {
	h.BroadcastToMatch(ev.MatchID, Message{Type: ev.Type, MatchID: ev.MatchID, Data: ev.Data})
}

// Publish implements game.Publisher for a single server without Redis.
func (h *Hub) Publish(_ context.Context, ev game.MatchEvent) error {
	h.Deliver(ev)
	return nil
}
