/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which authenticates the handshake, upgrades the
HTTP connection to WebSocket, and hands the connection to the chat hub.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"playchat/internal/pkg/auth/jwt"
	"playchat/internal/pkg/logx"
	"playchat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// The credential is verified before the upgrade; a rejected handshake gets a 401 JSON body
// and never becomes a connection.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		u, cerr := deps.Auth.Authenticate(r.Context(), jwt.BearerToken(r))
		if cerr != nil {
			logx.Info("WebSocket handshake rejected", "request_id", requestID, "code", cerr.Code)
			resp.RespondError(w, cerr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket", "client_id", u.ID)
			return
		}

		client := deps.Hub.Connect(conn, u)

		logx.Info("WebSocket connection established and client registered",
			"client_id", u.ID, "conn_id", client.ID, "request_id", requestID)

		deps.Hub.Serve(client)
	}
}
