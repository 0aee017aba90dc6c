package chat

// Transport is the multicast capability the Relay broadcasts through.
//
// Implementations must not block on network I/O in any of these methods: the Relay
// calls them while holding its lock, so emits are expected to enqueue and return.
type Transport interface {
	// JoinRoom subscribes the connection to the room's multicast group.
	// It fails when the connection is no longer known to the transport.
	JoinRoom(connID, room string) error

	// LeaveRoom removes the connection from the room's multicast group.
	LeaveRoom(connID, room string)

	// EmitTo sends an event to a single connection.
	EmitTo(connID, event string, payload any)

	// EmitToRoom sends an event to every connection in room.
	EmitToRoom(room, event string, payload any)

	// BroadcastToRoom sends an event to every connection in room except exceptConnID.
	BroadcastToRoom(room, exceptConnID, event string, payload any)
}
