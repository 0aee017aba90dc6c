/*
Package chat contains the room membership and broadcast engine of the relay.

This file defines the Client struct, representing an active websocket connection. It
runs the read and write loops, decodes client requests, hands them to the EventHandler,
and acknowledges each request back to the sender.
*/
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/req"
)

const (
	// timeout duration for writing to the websocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// sendQueueSize is the number of outbound frames buffered per client.
	sendQueueSize = 256
)

// EventHandler receives the requests and lifecycle events of a connection.
// Relay is the production implementation.
type EventHandler interface {
	Join(connID, username, room string) *errs.CustomError
	SendMessage(connID, text string) *errs.CustomError
	SendLocation(connID string, latitude, longitude float64) *errs.CustomError
	Disconnect(connID string)

	// RateLimited records a request refused by the connection's event limiter and returns
	// the error it is acknowledged with.
	RateLimited(connID, event string) *errs.CustomError
}

// Client represents one websocket connection.
type Client struct {
	// ID is the connection identity.
	ID string

	hub     *Hub
	handler EventHandler
	conn    *websocket.Conn

	// send queues marshalled frames for WritePump. Closed by the Hub.
	send chan []byte

	// limiter bounds the rate of client requests; nil disables limiting.
	limiter *rate.Limiter

	// room is the multicast group the client belongs to, guarded by hub.mu.
	room string

	closeOnce sync.Once

	logger zerolog.Logger
}

// NewClient constructs a Client. limiter may be nil.
func NewClient(id string, hub *Hub, handler EventHandler, conn *websocket.Conn, limiter *rate.Limiter) *Client {
	return &Client{
		ID:      id,
		hub:     hub,
		handler: handler,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		limiter: limiter,
		logger:  logx.Logger().With().Str("conn_id", id).Logger(),
	}
}

// ReadPump reads requests until the connection fails, then runs disconnect cleanup.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxFrameSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Unexpected close while reading")
			}
			break
		}

		c.processInboundFrame(frameBytes)
	}
}

// cleanupOnDisconnect detaches the client from the Hub first, so the left notice is only sent
// to the remaining members, and then lets the handler update the registry.
func (c *Client) cleanupOnDisconnect() {
	c.hub.Unregister(c)
	c.handler.Disconnect(c.ID)
	c.closeConn()

	c.logger.Debug().Msg("Client connection cleaned up.")
}

// processInboundFrame charges the event limiter, then decodes one request, dispatches it and
// acknowledges it. Every frame costs a token, malformed ones included.
func (c *Client) processInboundFrame(frameBytes []byte) {
	if c.limiter != nil && !c.limiter.Allow() {
		c.refuseRateLimited(frameBytes)
		return
	}

	var frame inboundFrame
	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		c.logger.Warn().Err(err).Int("frame_bytes", len(frameBytes)).Msg("Client sent invalid JSON frame")
		return
	}

	c.ack(frame.Ack, c.dispatch(frame))
}

// refuseRateLimited acknowledges a refused frame when it carries an ack id and drops it silently otherwise.
func (c *Client) refuseRateLimited(frameBytes []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(frameBytes, &frame); err != nil {
		frame = inboundFrame{}
	}

	c.ack(frame.Ack, c.handler.RateLimited(c.ID, frame.Event))
}

func (c *Client) dispatch(frame inboundFrame) *errs.CustomError {
	switch frame.Event {
	case EventJoin:
		var p JoinPayload
		if err := req.DecodeJSON(frame.Data, &p); err != nil {
			return err
		}
		return c.handler.Join(c.ID, p.Username, p.Room)

	case EventSendMessage:
		var text string
		if err := req.DecodeJSON(frame.Data, &text); err != nil {
			return err
		}
		return c.handler.SendMessage(c.ID, text)

	case EventSendLocation:
		var p LocationPayload
		if err := req.DecodeJSON(frame.Data, &p); err != nil {
			return err
		}
		return c.handler.SendLocation(c.ID, p.Latitude, p.Longitude)

	default:
		c.logger.Warn().Str("event", frame.Event).Msg("Client sent unsupported event")
		return errs.NewError(errs.ErrUnsupportedEvent, frame.Event)
	}
}

// ack queues the acknowledgment for request id. An id of zero means the client did not ask for one.
func (c *Client) ack(id uint64, err *errs.CustomError) {
	if id == 0 {
		return
	}

	frame := outboundFrame{Event: EventAck, Ack: id}
	if err != nil {
		frame.Error = err.Message
		frame.Code = err.Code
	}

	c.hub.sendFrame(c.ID, frame)
}

// WritePump writes queued frames and periodic pings until the send queue is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage returns false when WritePump should stop.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage returns false when WritePump should stop.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// closeConn closes the underlying connection once. It unblocks ReadPump.
func (c *Client) closeConn() {
	c.closeOnce.Do(func() {
		if c.conn == nil {
			return
		}
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error")
		}
	})
}
