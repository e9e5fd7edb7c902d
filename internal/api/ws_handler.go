package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/phrazzld/taskhub-api/internal/api/shared"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/service/auth"
)

// WSHandler upgrades authenticated clients to WebSocket sessions and binds
// them into the presence registry under their user ID.
type WSHandler struct {
	hub        *realtime.Hub
	jwtService auth.JWTService
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *realtime.Hub, jwtService auth.JWTService) *WSHandler {
	return &WSHandler{
		hub:        hub,
		jwtService: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers cannot set an Authorization header on a WebSocket
			// handshake, so cross-origin clients are expected and the token
			// in the query string is the authorization boundary.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /api/ws?token=... The token is the regular access token;
// the handshake fails with 401 before upgrading when it does not validate.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Missing token")
		return
	}

	claims, err := h.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error response.
		slog.Debug("websocket upgrade failed",
			"error", redact.Error(err),
			"user_id", claims.UserID)
		return
	}

	client := realtime.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	slog.Debug("websocket session established", "user_id", claims.UserID)

	// Blocks until the connection closes; Run unregisters the client.
	client.Run(r.Context())
}
