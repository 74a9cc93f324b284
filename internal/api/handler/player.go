package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/pongserver/internal/api/response"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/history"
	"github.com/mcoot/pongserver/internal/storage"
)

// PlayerHandler handles presence and match history endpoints
type PlayerHandler struct {
	storage storage.Storage
	history *history.Recorder
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(storage storage.Storage, history *history.Recorder) *PlayerHandler {
	return &PlayerHandler{storage: storage, history: history}
}

// Presence handles GET /api/v1/presence
func (h *PlayerHandler) Presence(w http.ResponseWriter, r *http.Request) {
	players, err := h.storage.ListOnlinePlayers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PresenceFromModel(players))
}

// History handles GET /api/v1/players/{player_id}/history
func (h *PlayerHandler) History(w http.ResponseWriter, r *http.Request) {
	player := model.PlayerID(mux.Vars(r)["player_id"])

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	results, err := h.history.List(r.Context(), player, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	matches := make([]response.MatchResult, len(results))
	for i, result := range results {
		matches[i] = response.MatchResultFromModel(result)
	}
	response.JSON(w, http.StatusOK, response.History{PlayerID: string(player), Matches: matches})
}
