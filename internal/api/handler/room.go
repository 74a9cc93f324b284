package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pongserver/internal/api/middleware"
	"github.com/mcoot/pongserver/internal/api/request"
	"github.com/mcoot/pongserver/internal/api/response"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/registry"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(registry *registry.Registry, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{registry: registry, logger: logger}
}

// Create handles POST /api/v1/rooms. The caller takes the left slot.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	mode := model.ModeTwoPlayer
	if req.Mode != "" {
		parsed, err := model.ParseSessionMode(req.Mode)
		if err != nil {
			WriteError(w, err)
			return
		}
		mode = parsed
	}

	players := [2]model.PlayerID{player, ""}
	if req.Opponent != "" {
		if mode != model.ModeTwoPlayer {
			WriteError(w, NewInvalidRequestError("Opponent is only valid for two_player rooms"))
			return
		}
		if model.PlayerID(req.Opponent) == player {
			WriteError(w, NewInvalidRequestError("Opponent must be another player"))
			return
		}
		if model.PlayerID(req.Opponent).Reserved() {
			WriteError(w, NewInvalidRequestError("Opponent must be a human player"))
			return
		}
		players[1] = model.PlayerID(req.Opponent)
	}

	sess, err := h.registry.Create(mode, players)
	if err != nil {
		WriteError(w, err)
		return
	}

	summary, err := sess.Snapshot()
	if err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("room created via api",
		slog.String("room", string(sess.ID())),
		slog.String("player_id", string(player)))
	response.JSON(w, http.StatusCreated, response.RoomFromModel(summary))
}

// Get handles GET /api/v1/rooms/{room_id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["room_id"])

	sess, err := h.registry.Find(id)
	if err != nil {
		WriteError(w, err)
		return
	}

	summary, err := sess.Snapshot()
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(summary))
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.registry.List()

	rooms := make([]response.Room, 0, len(sessions))
	for _, sess := range sessions {
		summary, err := sess.Snapshot()
		if err != nil {
			continue // Finished between List and Snapshot
		}
		rooms = append(rooms, response.RoomFromModel(summary))
	}

	response.JSON(w, http.StatusOK, response.RoomList{Rooms: rooms})
}

// Close handles DELETE /api/v1/rooms/{room_id}
func (h *RoomHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["room_id"])

	if err := h.registry.Remove(id); err != nil {
		WriteError(w, err)
		return
	}

	h.logger.Info("room closed by operator", slog.String("room", string(id)))
	response.NoContent(w)
}
