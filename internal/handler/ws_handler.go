/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for upgrading the HTTP
connection to WebSocket and initiating the client lifecycle. Connect rate limiting is applied
by the router. Joining a room happens later over the socket itself.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connID := randx.ConnectionID()
		eventLimiter := rate.NewLimiter(rate.Limit(deps.Config.EventRate), deps.Config.EventBurst)
		client := chat.NewClient(connID, deps.Hub, deps.Relay, conn, eventLimiter)

		if err := deps.Hub.Register(client); err != nil {
			logx.Warn("WebSocket connection rejected: Hub is shutting down.", "conn_id", connID)
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		deps.Relay.Connect(connID)

		go client.WritePump()

		client.ReadPump()
	}
}
