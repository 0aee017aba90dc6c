package session

import (
	"fmt"
	"sync"
	"testing"

	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/errs"
)

func TestAddNormalizes(t *testing.T) {
	r := NewRegistry()

	u, err := r.Add("c1", "  Alice ", " Room1 ")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if u.Username != "alice" || u.Room != "room1" || u.ID != "c1" {
		t.Errorf("Add() = %+v, want normalized alice/room1/c1", u)
	}

	got, ok := r.Get("c1")
	if !ok {
		t.Fatal("Get() after Add found nothing")
	}
	if got != u {
		t.Errorf("Get() = %+v, want %+v", got, u)
	}
}

func TestAddRejectsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		username string
		room     string
	}{
		{"empty username", "", "general"},
		{"blank room", "bob", "   "},
		{"both blank", " ", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			r.Add("existing", "carol", "general")
			before := r.Len()

			_, err := r.Add("c1", tt.username, tt.room)
			if !errs.Is(err, errs.ErrInvalidJoin) {
				t.Fatalf("Add() error = %v, want ErrInvalidJoin", err)
			}
			if r.Len() != before {
				t.Errorf("Len() = %d after failed Add, want %d", r.Len(), before)
			}
			if _, ok := r.Get("c1"); ok {
				t.Error("failed Add left an entry behind")
			}
		})
	}
}

func TestAddConflict(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Add("c1", "Alice", "Room1"); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}

	_, err := r.Add("c2", "alice", " room1 ")
	if !errs.Is(err, errs.ErrUsernameTaken) {
		t.Fatalf("second Add() error = %v, want ErrUsernameTaken", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestSameUsernameDifferentRooms(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Add("c1", "alice", "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add("c2", "alice", "two"); err != nil {
		t.Fatalf("same username in a different room should be allowed, got %v", err)
	}
}

func TestAddTwiceOnSameConnection(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Add("c1", "alice", "one"); err != nil {
		t.Fatal(err)
	}

	_, err := r.Add("c1", "bob", "two")
	if !errs.Is(err, errs.ErrAlreadyJoined) {
		t.Fatalf("Add() error = %v, want ErrAlreadyJoined", err)
	}

	u, _ := r.Get("c1")
	if u.Username != "alice" || u.Room != "one" {
		t.Errorf("original user was modified: %+v", u)
	}
	if len(r.UsersInRoom("two")) != 0 {
		t.Error("rejected join leaked into room index")
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	r.Add("c1", "Bob", "general")

	u, ok := r.Remove("c1")
	if !ok || u.Username != "bob" {
		t.Fatalf("Remove() = %+v, %v", u, ok)
	}

	if _, ok := r.Get("c1"); ok {
		t.Error("Get() still finds removed user")
	}
	for _, m := range r.UsersInRoom("general") {
		if m.Username == "bob" {
			t.Error("UsersInRoom() still lists removed user")
		}
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Remove("ghost"); ok {
		t.Error("Remove() of unknown connection reported a user")
	}
}

func TestUsernameFreedAfterRemove(t *testing.T) {
	r := NewRegistry()
	r.Add("c1", "bob", "general")
	r.Remove("c1")

	if _, err := r.Add("c2", "BOB", "general"); err != nil {
		t.Errorf("username should be reusable after removal, got %v", err)
	}
}

func TestUsersInRoomIsNormalized(t *testing.T) {
	r := NewRegistry()
	r.Add("c1", "x", "general")
	r.Add("c2", "y", "General")
	r.Add("c3", "z", "elsewhere")

	a := r.UsersInRoom("GENERAL")
	b := r.UsersInRoom(" general ")

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("len = %d, %d, want 2, 2", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("results differ at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestUsersInRoomJoinOrder(t *testing.T) {
	r := NewRegistry()
	names := []string{"delta", "alpha", "charlie", "bravo"}
	for i, n := range names {
		r.Add(fmt.Sprintf("c%d", i), n, "room")
	}

	got := r.UsersInRoom("room")
	for i, u := range got {
		if u.Username != names[i] {
			t.Errorf("position %d = %q, want %q", i, u.Username, names[i])
		}
	}
}

func TestEmptyRoomVanishes(t *testing.T) {
	r := NewRegistry()
	r.Add("c1", "x", "party")
	r.Remove("c1")

	users := r.UsersInRoom("party")
	if users == nil || len(users) != 0 {
		t.Errorf("UsersInRoom() = %#v, want empty non-nil slice", users)
	}
	if rooms := r.Rooms(); len(rooms) != 0 {
		t.Errorf("Rooms() = %v, want none", rooms)
	}
}

func TestRooms(t *testing.T) {
	r := NewRegistry()
	r.Add("c1", "a", "zeta")
	r.Add("c2", "b", "Alpha")
	r.Add("c3", "c", "alpha")

	rooms := r.Rooms()
	if len(rooms) != 2 || rooms[0] != "alpha" || rooms[1] != "zeta" {
		t.Errorf("Rooms() = %v, want [alpha zeta]", rooms)
	}
}

func TestConcurrentJoinsNeverDuplicate(t *testing.T) {
	r := NewRegistry()

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every worker races for one of five names
			name := fmt.Sprintf("user%d", i%5)
			if _, err := r.Add(fmt.Sprintf("c%d", i), name, "race"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 5 {
		t.Errorf("%d joins succeeded, want 5", succeeded)
	}

	seen := make(map[string]bool)
	for _, u := range r.UsersInRoom("race") {
		if seen[u.Username] {
			t.Errorf("duplicate username %q in room", u.Username)
		}
		seen[u.Username] = true
	}
	if r.Len() != 5 {
		t.Errorf("Len() = %d, want 5", r.Len())
	}
}

func TestGetReturnsNormalizedForm(t *testing.T) {
	r := NewRegistry()

	raw := []struct{ name, room string }{
		{" Zed ", "LOBBY"},
		{"MiXeD", "  Some Room  "},
	}
	for i, in := range raw {
		id := fmt.Sprintf("c%d", i)
		if _, err := r.Add(id, in.name, in.room); err != nil {
			t.Fatal(err)
		}
		got, _ := r.Get(id)
		if got.Username != user.Normalize(in.name) || got.Room != user.Normalize(in.room) {
			t.Errorf("Get(%s) = %+v, want normalized %q/%q", id, got, user.Normalize(in.name), user.Normalize(in.room))
		}
	}
}
