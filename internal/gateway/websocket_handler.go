package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/store"
)

// GameAuthorizer checks the viewer token before a socket is admitted.
type GameAuthorizer interface {
	GetGameByViewerToken(ctx context.Context, id uuid.UUID, token string) (*models.Game, error)
}

// WebSocketHandler handles WebSocket upgrade requests for viewers.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	auth              GameAuthorizer
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, auth GameAuthorizer) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		auth:              auth,
	}
}

// HandleGameConnection admits a viewer socket for one game. The viewer
// token is the only access control.
func (h *WebSocketHandler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	gameIDStr := r.URL.Query().Get("game_id")
	if gameIDStr == "" {
		http.Error(w, "game_id is required", http.StatusBadRequest)
		return
	}
	gameID, err := uuid.Parse(gameIDStr)
	if err != nil {
		http.Error(w, "invalid game_id format", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	if _, err := h.auth.GetGameByViewerToken(r.Context(), gameID, token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load game", http.StatusInternalServerError)
		return
	}

	if err := h.connectionManager.UpgradeConnection(w, r, gameID); err != nil {
		log.Error().
			Err(err).
			Str("game_id", gameID.String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/game", h.HandleGameConnection)
}
