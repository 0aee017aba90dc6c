/*
Package handler provides read-only HTTP handlers exposing the live rooms and their rosters.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"chatrelay/internal/pkg/resp"
)

// HandleListRooms returns the names of all non-empty rooms in lexical order.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Relay.Rooms())
	}
}

// HandleRoomUsers returns the roster of a room. Unknown rooms yield an empty list.
func HandleRoomUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Relay.Roster(chi.URLParam(r, "room")))
	}
}
