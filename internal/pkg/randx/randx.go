/*
Package randx provides generators for opaque identifiers.

Connection identities are random UUIDs. They are never persisted and never reused
across reconnects.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnectionID returns a new random connection identity.
func ConnectionID() string {
	return uuid.NewString()
}

