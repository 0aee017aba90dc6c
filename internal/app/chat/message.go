/*
Package chat contains the room membership and broadcast engine of the relay.

This file defines the wire vocabulary: event names, the payloads carried by each event,
and the frames that wrap them on a websocket connection.
*/
package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chatrelay/internal/app/user"
)

// Client to server events.
const (
	EventJoin         = "join"
	EventSendMessage  = "sendMessage"
	EventSendLocation = "sendLocation"
)

// Server to client events.
const (
	EventMsg         = "msg"
	EventLocationMsg = "locationMsg"
	EventRoomData    = "roomData"
	EventAck         = "ack"
)

// SystemUsername is the sender name used for relay-generated notices.
const SystemUsername = "Admin"

// Message is the payload of a msg event.
type Message struct {
	Username string `json:"username"`
	Text     string `json:"text"`

	// CreatedAt is a Unix timestamp in milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// LocationMessage is the payload of a locationMsg event.
type LocationMessage struct {
	Username  string `json:"username"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"createdAt"`
}

// RosterEntry is a single member in a RoomData roster.
type RosterEntry struct {
	Username string `json:"username"`
}

// RoomData is the payload of a roomData event.
type RoomData struct {
	Room  string        `json:"room"`
	Users []RosterEntry `json:"users"`
}

// JoinPayload is the data of a join request.
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// LocationPayload is the data of a sendLocation request.
// It accepts either {"latitude":..,"longitude":..} or a [latitude, longitude] pair.
type LocationPayload struct {
	Latitude  float64
	Longitude float64
}

var errLocationShape = errors.New("location must be {latitude, longitude} or [latitude, longitude]")

// UnmarshalJSON implements json.Unmarshaler.
func (p *LocationPayload) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(trimmed, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return errLocationShape
		}
		p.Latitude, p.Longitude = pair[0], pair[1]
		return nil
	}

	var obj struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	if obj.Latitude == nil || obj.Longitude == nil {
		return errLocationShape
	}
	p.Latitude, p.Longitude = *obj.Latitude, *obj.Longitude
	return nil
}

// inboundFrame is a request read from a client. Ack is zero when no acknowledgment is wanted.
type inboundFrame struct {
	Event string          `json:"event"`
	Ack   uint64          `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outboundFrame is written to clients for both events and acknowledgments.
type outboundFrame struct {
	Event string `json:"event"`
	Ack   uint64 `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Code  int    `json:"code,omitempty"`
}

// NewMessage builds a msg payload stamped with at.
func NewMessage(username, text string, at time.Time) Message {
	return Message{
		Username:  username,
		Text:      text,
		CreatedAt: at.UnixMilli(),
	}
}

// NewLocationMessage builds a locationMsg payload linking to the given coordinates.
func NewLocationMessage(username string, latitude, longitude float64, at time.Time) LocationMessage {
	return LocationMessage{
		Username:  username,
		URL:       MapURL(latitude, longitude),
		CreatedAt: at.UnixMilli(),
	}
}

// MapURL returns a Google Maps link for the coordinates.
func MapURL(latitude, longitude float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(latitude, 'f', -1, 64),
		strconv.FormatFloat(longitude, 'f', -1, 64),
	)
}

// NewRoomData builds a roster snapshot for room.
func NewRoomData(room string, users []user.User) RoomData {
	entries := make([]RosterEntry, len(users))
	for i, u := range users {
		entries[i] = RosterEntry{Username: u.Username}
	}
	return RoomData{Room: room, Users: entries}
}
