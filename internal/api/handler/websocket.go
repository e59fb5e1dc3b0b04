package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/api"
	"github.com/timetidy/timetidy-service/internal/middleware"
	"github.com/timetidy/timetidy-service/internal/websockets"
)

// WebSocketHandler upgrades authenticated clients onto the event hub
type WebSocketHandler struct {
	hub      *websockets.Hub
	resolver middleware.TokenResolver
	upgrader *websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(hub *websockets.Hub, resolver middleware.TokenResolver, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		resolver: resolver,
		upgrader: websockets.NewUpgrader(allowedOrigins),
		logger:   orNop(logger),
	}
}

// ServeHTTP authenticates with ?token= (browsers cannot set headers on a
// websocket handshake) or the Authorization header, then upgrades.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	if token == "" {
		api.Fail(w, http.StatusUnauthorized, "Access token required", nil)
		return
	}

	user, err := h.resolver.ResolveToken(r.Context(), token)
	if err != nil {
		api.Error(w, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	websockets.ServeWs(h.hub, conn, user)
}
