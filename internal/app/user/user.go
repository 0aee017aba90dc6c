/*
Package user contains the data structure describing a chat participant.

A User exists only while its connection is open. Its username and room are stored in
normalized form and never change after creation.
*/
package user

import "strings"

// User represents a participant that has joined a room.
type User struct {
	// ID is the transport-assigned connection identity.
	ID string `json:"id"`

	// Username is the normalized display name, unique within Room.
	Username string `json:"username"`

	// Room is the normalized room name.
	Room string `json:"room"`
}

// Normalize trims surrounding whitespace and case-folds s.
// It is applied to usernames and room names at every entry point.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
