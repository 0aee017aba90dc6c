/*
Package chat contains the room membership and broadcast engine of the relay.

This file defines the Relay, which turns join, message, location and disconnect events
into registry updates and broadcasts. Each event handler runs its registry reads and
writes, and queues its outbound events, inside one critical section, so clients in a
room observe notices and rosters in the order the membership actually changed.
*/
package chat

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatrelay/internal/app/session"
	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/filter"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/metrics"
)

// MaxContentBytes is the largest accepted message text.
const MaxContentBytes = 5000

// ContentFilter decides whether a message text may be broadcast.
type ContentFilter interface {
	IsDisallowed(text string) bool
}

// ContentFilterFunc adapts a plain predicate to ContentFilter.
type ContentFilterFunc func(text string) bool

// IsDisallowed calls f(text).
func (f ContentFilterFunc) IsDisallowed(text string) bool {
	return f(text)
}

// Option configures a Relay.
type Option func(*Relay)

// WithContentFilter replaces the default word-list filter.
func WithContentFilter(f ContentFilter) Option {
	return func(r *Relay) { r.filter = f }
}

// WithClock sets the time source used for createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// WithMetrics enables Prometheus accounting.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// Relay coordinates room membership and message fan-out for all connections.
type Relay struct {
	registry  *session.Registry
	transport Transport
	filter    ContentFilter
	now       func() time.Time
	metrics   *metrics.Metrics

	// mu serializes event handlers.
	mu sync.Mutex

	logger zerolog.Logger
}

// NewRelay creates a Relay over registry, broadcasting through transport.
func NewRelay(registry *session.Registry, transport Transport, opts ...Option) *Relay {
	r := &Relay{
		registry:  registry,
		transport: transport,
		filter:    filter.Default(),
		now:       time.Now,
		logger:    logx.Component("Relay"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Connect records a new transport connection. The connection stays unjoined until Join succeeds.
func (r *Relay) Connect(connID string) {
	r.logger.Debug().Str("conn_id", connID).Msg("Connection opened.")

	if r.metrics != nil {
		r.metrics.ConnectionsTotal.Inc()
		r.metrics.ActiveConnections.Inc()
	}
}

// Join registers connID as username in room. On success the joiner gets a welcome notice,
// the other members get a joined notice, and then everyone in the room gets the new roster,
// in that order. On failure nothing is changed and nothing is broadcast.
func (r *Relay) Join(connID, username, room string) *errs.CustomError {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, err := r.registry.Add(connID, username, room)
	if err != nil {
		r.rejected(connID, EventJoin, err)
		return err
	}

	if tErr := r.transport.JoinRoom(connID, u.Room); tErr != nil {
		r.registry.Remove(connID)
		r.logger.Warn().Err(tErr).Str("conn_id", connID).Msg("Connection vanished during join, rolled back.")

		closedErr := errs.NewError(errs.ErrConnectionClosed)
		r.rejected(connID, EventJoin, closedErr)
		return closedErr
	}

	now := r.now()

	r.transport.EmitTo(connID, EventMsg, NewMessage(SystemUsername, fmt.Sprintf("Welcome, %s", u.Username), now))
	r.transport.BroadcastToRoom(u.Room, connID, EventMsg, NewMessage(SystemUsername, fmt.Sprintf("%s has joined!", u.Username), now))
	r.transport.EmitToRoom(u.Room, EventRoomData, NewRoomData(u.Room, r.registry.UsersInRoom(u.Room)))

	r.logger.Info().
		Str("conn_id", connID).
		Str("username", u.Username).
		Str("room", u.Room).
		Msg("User joined room.")

	r.handled(EventJoin)
	return nil
}

// SendMessage broadcasts text from connID to every member of its room, the sender included.
func (r *Relay) SendMessage(connID, text string) *errs.CustomError {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.registry.Get(connID)
	if !ok {
		err := errs.NewError(errs.ErrNotJoined)
		r.rejected(connID, EventSendMessage, err)
		return err
	}

	if len(text) > MaxContentBytes {
		err := errs.NewError(errs.ErrMessageContentTooLong)
		r.rejected(connID, EventSendMessage, err)
		return err
	}

	if r.filter != nil && r.filter.IsDisallowed(text) {
		err := errs.NewError(errs.ErrContentRejected)
		r.rejected(connID, EventSendMessage, err)
		return err
	}

	r.transport.EmitToRoom(u.Room, EventMsg, NewMessage(u.Username, text, r.now()))

	r.handled(EventSendMessage)
	return nil
}

// SendLocation broadcasts a map link for the coordinates to every member of the sender's room.
func (r *Relay) SendLocation(connID string, latitude, longitude float64) *errs.CustomError {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.registry.Get(connID)
	if !ok {
		err := errs.NewError(errs.ErrNotJoined)
		r.rejected(connID, EventSendLocation, err)
		return err
	}

	r.transport.EmitToRoom(u.Room, EventLocationMsg, NewLocationMessage(u.Username, latitude, longitude, r.now()))

	r.handled(EventSendLocation)
	return nil
}

// Disconnect removes connID from the registry. If it had joined, the remaining members of its
// room get a left notice followed by the new roster. Disconnecting an unjoined connection is a no-op.
func (r *Relay) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.ActiveConnections.Dec()
	}

	u, ok := r.registry.Remove(connID)
	if !ok {
		r.logger.Debug().Str("conn_id", connID).Msg("Unjoined connection closed.")
		return
	}

	r.transport.LeaveRoom(connID, u.Room)

	r.transport.EmitToRoom(u.Room, EventMsg, NewMessage(SystemUsername, fmt.Sprintf("%s has left!", u.Username), r.now()))
	r.transport.EmitToRoom(u.Room, EventRoomData, NewRoomData(u.Room, r.registry.UsersInRoom(u.Room)))

	r.logger.Info().
		Str("conn_id", connID).
		Str("username", u.Username).
		Str("room", u.Room).
		Msg("User left room.")

	r.handled("disconnect")
}

// RateLimited counts a request refused by a connection's event limiter. It only logs at
// debug level, since a flooding client produces one call per frame.
func (r *Relay) RateLimited(connID, event string) *errs.CustomError {
	err := errs.NewError(errs.ErrRateLimitExceeded)

	r.logger.Debug().
		Str("conn_id", connID).
		Str("event", event).
		Msg(err.Message)

	if r.metrics != nil {
		r.metrics.RejectedTotal.WithLabelValues(strconv.Itoa(err.Code)).Inc()
	}

	return err
}

// Roster returns the current roster of rawRoom.
func (r *Relay) Roster(rawRoom string) RoomData {
	return NewRoomData(user.Normalize(rawRoom), r.registry.UsersInRoom(rawRoom))
}

// Rooms returns the names of rooms that currently have members.
func (r *Relay) Rooms() []string {
	return r.registry.Rooms()
}

func (r *Relay) handled(event string) {
	if r.metrics == nil {
		return
	}
	r.metrics.EventsTotal.WithLabelValues(event).Inc()
	r.metrics.JoinedUsers.Set(float64(r.registry.Len()))
}

func (r *Relay) rejected(connID, event string, err *errs.CustomError) {
	r.logger.Info().
		Str("conn_id", connID).
		Str("event", event).
		Int("code", err.Code).
		Msg(err.Message)

	if r.metrics != nil {
		r.metrics.RejectedTotal.WithLabelValues(strconv.Itoa(err.Code)).Inc()
	}
}
