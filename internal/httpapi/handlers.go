// Package httpapi exposes the engine over JSON HTTP: game setup, token
// scoped reads for viewers, and the scorekeeper action endpoints backed
// by live sessions.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openside/scorekeeper/internal/game"
	"github.com/openside/scorekeeper/internal/models"
	"github.com/openside/scorekeeper/internal/scorekeeper"
	"github.com/openside/scorekeeper/internal/store"
	"github.com/openside/scorekeeper/internal/timeline"
)

// GameApp defines what the handlers need from the game app layer.
type GameApp interface {
	CreateGame(ctx context.Context, req game.CreateGameRequest) (*models.Game, error)
	GetScorekeeperGame(ctx context.Context, id uuid.UUID, token string) (*models.Game, error)
	GetViewerGame(ctx context.Context, id uuid.UUID, token string) (*models.Game, error)
	ListEvents(ctx context.Context, gameID uuid.UUID) ([]models.GameEvent, error)
}

// SessionManager defines what the handlers need from the scorekeeper
// session registry.
type SessionManager interface {
	Get(ctx context.Context, gameID uuid.UUID, token string) (*scorekeeper.Session, error)
}

// Handler serves the JSON API.
type Handler struct {
	games    GameApp
	sessions SessionManager
}

// NewHandler creates the API handler.
func NewHandler(games GameApp, sessions SessionManager) *Handler {
	return &Handler{games: games, sessions: sessions}
}

// RegisterRoutes registers all API routes with the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /games", h.handleCreateGame)
	mux.HandleFunc("GET /games/{id}", h.handleGetGame)
	mux.HandleFunc("GET /games/{id}/events", h.handleListEvents)
	mux.HandleFunc("GET /games/{id}/next", h.handleNextTransition)
	mux.HandleFunc("POST /games/{id}/actions", h.handleAction)
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req game.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.games.CreateGame(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleGetGame serves both roles: the scorekeeper token wins when it
// matches, otherwise the token is tried as a viewer token.
func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, token, ok := h.parseGameRequest(w, r)
	if !ok {
		return
	}

	g, err := h.games.GetScorekeeperGame(r.Context(), gameID, token)
	if errors.Is(err, store.ErrNotFound) {
		g, err = h.games.GetViewerGame(r.Context(), gameID, token)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	gameID, token, ok := h.parseGameRequest(w, r)
	if !ok {
		return
	}

	g, err := h.games.GetViewerGame(r.Context(), gameID, token)
	if errors.Is(err, store.ErrNotFound) {
		g, err = h.games.GetScorekeeperGame(r.Context(), gameID, token)
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	events, err := h.games.ListEvents(r.Context(), gameID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":   events,
		"timeline": timeline.Entries(events, g.GameStructure),
	})
}

func (h *Handler) handleNextTransition(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	t, found := session.NextGameStateButton()
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"available": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": true,
		"label":     t.Label,
		"tag":       t.Tag,
	})
}

// Action names accepted by the actions endpoint.
const (
	ActionRecord     = "record"
	ActionTry        = "try"
	ActionConversion = "conversion"
	ActionAdvance    = "advance"
	ActionUndo       = "undo"
)

type actionRequest struct {
	Action    string      `json:"action"`
	Team      models.Team `json:"team,omitempty"`
	EventType string      `json:"event_type,omitempty"`
	Points    int         `json:"points,omitempty"`
	Made      bool        `json:"made,omitempty"`
}

type actionResponse struct {
	Game              models.Game        `json:"game"`
	Events            []models.GameEvent `json:"events"`
	PendingConversion models.Team        `json:"pending_conversion,omitempty"`
	Unsynced          int                `json:"unsynced"`
}

func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	session, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch req.Action {
	case ActionRecord:
		// A try must open the pending-conversion state; route it through
		// the same path as the try action so the generic record action
		// cannot bypass conversion sequencing.
		if req.EventType == models.EventTry {
			err = session.HandleTry(req.Team)
		} else {
			err = session.RecordEvent(req.Team, req.EventType, req.Points)
		}
	case ActionTry:
		err = session.HandleTry(req.Team)
	case ActionConversion:
		err = session.HandleConversion(req.Made)
	case ActionAdvance:
		err = session.AdvanceGameState()
	case ActionUndo:
		err = session.UndoLastEvent()
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		writeActionError(w, err)
		return
	}

	pending, _ := session.PendingConversion()
	writeJSON(w, http.StatusOK, actionResponse{
		Game:              session.Game(),
		Events:            session.Events(),
		PendingConversion: pending,
		Unsynced:          session.Unsynced(),
	})
}

func (h *Handler) parseGameRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return uuid.Nil, "", false
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return uuid.Nil, "", false
	}
	return gameID, token, true
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*scorekeeper.Session, bool) {
	gameID, token, ok := h.parseGameRequest(w, r)
	if !ok {
		return nil, false
	}

	session, err := h.sessions.Get(r.Context(), gameID, token)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return session, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	log.Error().Err(err).Msg("store request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeActionError maps validation failures to 409; they are legality
// rejections, not malformed requests.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scorekeeper.ErrConversionPending),
		errors.Is(err, scorekeeper.ErrNoConversionPending),
		errors.Is(err, scorekeeper.ErrGameNotInPlay),
		errors.Is(err, scorekeeper.ErrInvalidTeam),
		errors.Is(err, scorekeeper.ErrInvalidPoints):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("action failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
