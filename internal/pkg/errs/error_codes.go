/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both inside the server
and in acknowledgments sent back to the originating connection.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedEvent indicates that the client sent an event name the relay does not handle.
	ErrUnsupportedEvent = 1002

	// ErrInvalidJSONFormat indicates that a frame or payload is not valid JSON for its event.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that a payload contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room and Content Business Logic Errors
const (
	// ErrInvalidJoin indicates that the username or room is empty after normalization.
	ErrInvalidJoin = 2101

	// ErrUsernameTaken indicates that the username is already used in the room.
	ErrUsernameTaken = 2102

	// ErrAlreadyJoined indicates that the connection has already joined a room.
	ErrAlreadyJoined = 2103

	// ErrNotJoined indicates that a message or location was sent before joining a room.
	ErrNotJoined = 2104

	// ErrContentRejected indicates that the message was refused by the content filter.
	ErrContentRejected = 2201

	// ErrMessageContentTooLong indicates that the user's message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2202
)

// 3xxx: Session Errors
const (
	// ErrConnectionClosed indicates that the connection went away before the operation committed.
	ErrConnectionClosed = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
