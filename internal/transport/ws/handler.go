package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/faru128/social-deduction-game/internal/app"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// a Client
type Handler struct {
	store    *app.Store
	registry *app.Registry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(store *app.Store, registry *app.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. Identity and lobby are
// established by the first messages on the socket, not by the request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.logger.Debug("websocket connected", "remoteAddr", r.RemoteAddr)

	client := NewClient(conn, h.store, h.registry, h.logger)
	client.Run()
}
