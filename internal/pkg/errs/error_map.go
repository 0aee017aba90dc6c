/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template. The messages
are what a client sees in its acknowledgment, so they are kept short and human-readable.
*/
package errs

import "net/http"

var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:      {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedEvent:   {Code: ErrUnsupportedEvent, Message: "Unsupported event: %s"},
	ErrInvalidJSONFormat:  {Code: ErrInvalidJSONFormat, Message: "Malformed payload."},
	ErrExtraContentInBody: {Code: ErrExtraContentInBody, Message: "Payload contains unexpected data."},
	ErrRateLimitExceeded:  {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx
	ErrInvalidJoin:           {Code: ErrInvalidJoin, Message: "Username and room are required!", Status: http.StatusBadRequest},
	ErrUsernameTaken:         {Code: ErrUsernameTaken, Message: "Username already exists!", Status: http.StatusConflict},
	ErrAlreadyJoined:         {Code: ErrAlreadyJoined, Message: "You have already joined a room!", Status: http.StatusConflict},
	ErrNotJoined:             {Code: ErrNotJoined, Message: "You must join a room first!", Status: http.StatusForbidden},
	ErrContentRejected:       {Code: ErrContentRejected, Message: "Profanity is not allowed!", Status: http.StatusUnprocessableEntity},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusRequestEntityTooLarge},

	// 3xxx
	ErrConnectionClosed: {Code: ErrConnectionClosed, Message: "Connection is no longer active.", Status: http.StatusGone},

	// 5xxx
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
