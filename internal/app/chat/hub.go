/*
Package chat contains the room membership and broadcast engine of the relay.

This file defines the Hub, the websocket implementation of Transport. It tracks every
open Client and the multicast group each one belongs to. Outbound frames are marshalled
once and queued on each target's send channel without blocking; a client whose queue is
full gets its connection closed, and its read loop then runs the normal disconnect path.
*/
package chat

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/metrics"
)

// ErrUnknownConnection is returned when an operation names a connection the Hub does not hold.
var ErrUnknownConnection = errors.New("chat: unknown connection")

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("chat: hub is shut down")

// Hub manages open websocket clients and their room groups.
type Hub struct {
	// mu protects clients, rooms, closed and each Client's room field.
	// Send channels are only closed while holding the write lock.
	mu sync.RWMutex

	// clients maps connection ID to client.
	clients map[string]*Client

	// rooms maps room name to the clients subscribed to it.
	rooms map[string]map[string]*Client

	closed bool

	metrics *metrics.Metrics

	logger zerolog.Logger
}

// NewHub creates an empty Hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		metrics: m,
		logger:  logx.Component("Hub"),
	}
}

// Register adds a client to the connection table.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}

	h.clients[c.ID] = c

	h.logger.Debug().
		Str("conn_id", c.ID).
		Int("total_connections", len(h.clients)).
		Msg("Client registered.")

	return nil
}

// Unregister removes a client from the connection table and its room group, and closes its
// send queue. It reports whether the client was still registered.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.clients[c.ID]
	if !ok || current != c {
		return false
	}

	delete(h.clients, c.ID)
	h.leaveLocked(c)
	close(c.send)

	h.logger.Debug().
		Str("conn_id", c.ID).
		Int("total_connections", len(h.clients)).
		Msg("Client unregistered.")

	return true
}

// ConnectionCount returns the number of registered clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// JoinRoom implements Transport.
func (h *Hub) JoinRoom(connID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return ErrUnknownConnection
	}

	if c.room != "" {
		h.leaveLocked(c)
	}

	group := h.rooms[room]
	if group == nil {
		group = make(map[string]*Client)
		h.rooms[room] = group
	}
	group[connID] = c
	c.room = room

	return nil
}

// LeaveRoom implements Transport.
func (h *Hub) LeaveRoom(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[connID]; ok && c.room == room {
		h.leaveLocked(c)
	}
}

func (h *Hub) leaveLocked(c *Client) {
	if c.room == "" {
		return
	}

	if group := h.rooms[c.room]; group != nil {
		delete(group, c.ID)
		if len(group) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

// EmitTo implements Transport.
func (h *Hub) EmitTo(connID, event string, payload any) {
	h.sendFrame(connID, outboundFrame{Event: event, Data: payload})
}

// EmitToRoom implements Transport.
func (h *Hub) EmitToRoom(room, event string, payload any) {
	h.BroadcastToRoom(room, "", event, payload)
}

// BroadcastToRoom implements Transport.
func (h *Hub) BroadcastToRoom(room, exceptConnID, event string, payload any) {
	h.deliver(outboundFrame{Event: event, Data: payload}, func() []*Client {
		group := h.rooms[room]
		targets := make([]*Client, 0, len(group))
		for id, c := range group {
			if id != exceptConnID {
				targets = append(targets, c)
			}
		}
		return targets
	})
}

// sendFrame queues a frame for a single connection.
func (h *Hub) sendFrame(connID string, frame outboundFrame) {
	h.deliver(frame, func() []*Client {
		if c, ok := h.clients[connID]; ok {
			return []*Client{c}
		}
		return nil
	})
}

// deliver marshals frame once and queues it on every client returned by pick.
// pick runs under the read lock.
func (h *Hub) deliver(frame outboundFrame, pick func() []*Client) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error().Err(err).Str("event", frame.Event).Msg("Error marshaling frame.")
		return
	}

	var slow []*Client

	h.mu.RLock()
	for _, c := range pick() {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().
			Str("conn_id", c.ID).
			Str("event", frame.Event).
			Msg("Client send queue full, closing connection.")

		if h.metrics != nil {
			h.metrics.DroppedFrames.Inc()
		}

		c.closeConn()
	}
}

// Shutdown closes every client's send queue, which makes each write loop send a close
// frame and exit. Registration is refused afterwards.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[string]*Client)

	h.logger.Info().Msg("Hub shutdown complete.")
}
