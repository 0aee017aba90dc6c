/*
Package session holds the authoritative, in-memory mapping of connection identities
to joined users.

The Registry is the only owner of User records. Rooms are not stored on their own: a
room is the set of users whose Room field matches, kept in an index that is updated in
the same critical section as the user table, so the two never disagree. A room
disappears from every query as soon as its last member is removed.
*/
package session

import (
	"sort"
	"sync"

	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/errs"
)

type entry struct {
	user user.User

	// seq orders members of a room by join time.
	seq uint64
}

// Registry stores joined users keyed by connection identity.
// All methods are safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// users maps connection ID to its user.
	users map[string]entry

	// rooms maps room name to username to connection ID.
	rooms map[string]map[string]string

	seq uint64
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]entry),
		rooms: make(map[string]map[string]string),
	}
}

// Add normalizes rawUsername and rawRoom and registers them for connID.
// It fails with ErrInvalidJoin if either is empty after normalization, ErrAlreadyJoined
// if connID already holds a user, and ErrUsernameTaken if the username is in use in the room.
// A failed Add leaves the Registry unchanged.
func (r *Registry) Add(connID, rawUsername, rawRoom string) (user.User, *errs.CustomError) {
	username := user.Normalize(rawUsername)
	room := user.Normalize(rawRoom)

	if username == "" || room == "" {
		return user.User{}, errs.NewError(errs.ErrInvalidJoin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[connID]; ok {
		return user.User{}, errs.NewError(errs.ErrAlreadyJoined)
	}

	members := r.rooms[room]
	if _, taken := members[username]; taken {
		return user.User{}, errs.NewError(errs.ErrUsernameTaken)
	}

	if members == nil {
		members = make(map[string]string)
		r.rooms[room] = members
	}

	u := user.User{ID: connID, Username: username, Room: room}

	r.seq++
	r.users[connID] = entry{user: u, seq: r.seq}
	members[username] = connID

	return u, nil
}

// Remove deletes and returns the user for connID. The boolean is false when
// connID never joined, which is not an error.
func (r *Registry) Remove(connID string) (user.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.users[connID]
	if !ok {
		return user.User{}, false
	}

	delete(r.users, connID)

	if members := r.rooms[e.user.Room]; members != nil {
		delete(members, e.user.Username)
		if len(members) == 0 {
			delete(r.rooms, e.user.Room)
		}
	}

	return e.user, true
}

// Get returns the user for connID.
func (r *Registry) Get(connID string) (user.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.users[connID]
	return e.user, ok
}

// UsersInRoom returns the current members of rawRoom in join order.
// The room name is normalized the same way Add normalizes it. The result is never nil.
func (r *Registry) UsersInRoom(rawRoom string) []user.User {
	room := user.Normalize(rawRoom)

	r.mu.RLock()
	members := r.rooms[room]
	entries := make([]entry, 0, len(members))
	for _, connID := range members {
		entries = append(entries, r.users[connID])
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	users := make([]user.User, len(entries))
	for i, e := range entries {
		users[i] = e.user
	}
	return users
}

// Rooms returns the names of all rooms that currently have members, sorted.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
