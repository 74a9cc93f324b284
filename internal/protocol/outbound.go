package protocol

import (
	"encoding/json"

	"github.com/mcoot/pongserver/internal/model"
)

// Outbound frame types
const (
	TypeUsers        = "users"
	TypeRoomUpdate   = "room_update"
	TypeUpdatePaddle = "update_paddle"
	TypeGameUpdate   = "game_update"
	TypeGameOver     = "game_over"
	TypeInitialState = "initial_state"
	TypeError        = "error"
)

// Encode marshals an outbound frame
func Encode(frame any) ([]byte, error) {
	return json.Marshal(frame)
}

// UsersFrame lists online players
type UsersFrame struct {
	Type  string           `json:"type"`
	Users []model.PlayerID `json:"users"`
}

// NewUsers builds a users frame
func NewUsers(players []model.PlayerID) UsersFrame {
	if players == nil {
		players = []model.PlayerID{}
	}
	return UsersFrame{Type: TypeUsers, Users: players}
}

// InviteFrame delivers an invitation to its recipient
type InviteFrame struct {
	Type string         `json:"type"`
	From model.PlayerID `json:"from"`
	To   model.PlayerID `json:"to"`
}

// NewInvite builds an invite frame
func NewInvite(inv *model.Invitation) InviteFrame {
	return InviteFrame{Type: TypeInvite, From: inv.From, To: inv.To}
}

// CancelInviteFrame tells a party the invitation is gone
type CancelInviteFrame struct {
	Type   string         `json:"type"`
	From   model.PlayerID `json:"from"`
	To     model.PlayerID `json:"to"`
	Reason string         `json:"reason,omitempty"`
}

// NewCancelInvite builds a cancel_invite frame
func NewCancelInvite(inv *model.Invitation, reason string) CancelInviteFrame {
	return CancelInviteFrame{Type: TypeCancelInvite, From: inv.From, To: inv.To, Reason: reason}
}

// GameData describes a freshly formed two-player room
type GameData struct {
	From    model.PlayerID `json:"from"`
	To      model.PlayerID `json:"to"`
	Room    model.RoomID   `json:"room"`
	Player1 model.PlayerID `json:"player_1"`
	Player2 model.PlayerID `json:"player_2"`
}

// StartGameFrame tells both invitation parties which room to join
type StartGameFrame struct {
	Type     string   `json:"type"`
	GameData GameData `json:"game_data"`
}

// NewStartGame builds a start_game frame; the inviter takes the left slot
func NewStartGame(inv *model.Invitation, room model.RoomID) StartGameFrame {
	return StartGameFrame{
		Type: TypeStartGame,
		GameData: GameData{
			From:    inv.From,
			To:      inv.To,
			Room:    room,
			Player1: inv.From,
			Player2: inv.To,
		},
	}
}

// RoomPlayers names the connection bound to each slot, empty when unbound
type RoomPlayers struct {
	Player1 model.PlayerID `json:"player1"`
	Player2 model.PlayerID `json:"player2"`
}

// RoomUpdateFrame is broadcast whenever the roster or lifecycle state changes
type RoomUpdateFrame struct {
	Type    string             `json:"type"`
	Room    model.RoomID       `json:"room"`
	Mode    model.SessionMode  `json:"mode"`
	State   model.SessionState `json:"state"`
	Players RoomPlayers        `json:"players"`
}

// NewRoomUpdate builds a room_update frame
func NewRoomUpdate(room model.RoomID, mode model.SessionMode, state model.SessionState, players RoomPlayers) RoomUpdateFrame {
	return RoomUpdateFrame{Type: TypeRoomUpdate, Room: room, Mode: mode, State: state, Players: players}
}

// UpdatePaddleFrame reports a paddle that moved on the last tick
type UpdatePaddleFrame struct {
	Type      string  `json:"type"`
	Paddle    string  `json:"paddle"`
	PaddleKey string  `json:"paddle_key"`
	Position  float64 `json:"position"`
}

// NewUpdatePaddle builds an update_paddle frame
func NewUpdatePaddle(side model.Side, position float64) UpdatePaddleFrame {
	return UpdatePaddleFrame{
		Type:      TypeUpdatePaddle,
		Paddle:    string(side),
		PaddleKey: side.LegacyKey(),
		Position:  position,
	}
}

// GameUpdateFrame is the per-tick state broadcast. Scores are repeated under
// the score1/score2 names older clients read.
type GameUpdateFrame struct {
	Type        string  `json:"type"`
	Tick        uint64  `json:"tick"`
	BallX       float64 `json:"ball_x"`
	BallY       float64 `json:"ball_y"`
	PaddleLeft  float64 `json:"paddle_left"`
	PaddleRight float64 `json:"paddle_right"`
	ScoreLeft   int     `json:"score_left"`
	ScoreRight  int     `json:"score_right"`
	Score1      int     `json:"score1"`
	Score2      int     `json:"score2"`
}

// NewGameUpdate builds a game_update frame
func NewGameUpdate(tick uint64, state model.PhysicsState) GameUpdateFrame {
	return GameUpdateFrame{
		Type:        TypeGameUpdate,
		Tick:        tick,
		BallX:       state.Ball.X,
		BallY:       state.Ball.Y,
		PaddleLeft:  state.PaddleLeft,
		PaddleRight: state.PaddleRight,
		ScoreLeft:   state.ScoreLeft,
		ScoreRight:  state.ScoreRight,
		Score1:      state.ScoreLeft,
		Score2:      state.ScoreRight,
	}
}

// GameOverFrame is the terminal broadcast of a session
type GameOverFrame struct {
	Type       string             `json:"type"`
	Winner     model.PlayerID     `json:"winner"`
	WinnerSide model.Side         `json:"winner_side,omitempty"`
	ScoreLeft  int                `json:"score_left"`
	ScoreRight int                `json:"score_right"`
	Score1     int                `json:"score1"`
	Score2     int                `json:"score2"`
	Reason     model.ResultReason `json:"reason"`
}

// NewGameOver builds a game_over frame from a result
func NewGameOver(r *model.MatchResult) GameOverFrame {
	return GameOverFrame{
		Type:       TypeGameOver,
		Winner:     r.Winner,
		WinnerSide: r.WinnerSide,
		ScoreLeft:  r.ScoreLeft,
		ScoreRight: r.ScoreRight,
		Score1:     r.ScoreLeft,
		Score2:     r.ScoreRight,
		Reason:     r.Reason,
	}
}

// InitialStateFrame is sent to a connection right after it binds
type InitialStateFrame struct {
	Type        string             `json:"type"`
	Room        model.RoomID       `json:"room"`
	Mode        model.SessionMode  `json:"mode"`
	State       model.SessionState `json:"state"`
	Slot        model.Side         `json:"slot,omitempty"`
	Players     RoomPlayers        `json:"players"`
	BallX       float64            `json:"ball_x"`
	BallY       float64            `json:"ball_y"`
	PaddleLeft  float64            `json:"paddle_left"`
	PaddleRight float64            `json:"paddle_right"`
	ScoreLeft   int                `json:"score_left"`
	ScoreRight  int                `json:"score_right"`
}

// NewInitialState builds an initial_state frame
func NewInitialState(room model.RoomID, mode model.SessionMode, state model.SessionState, slot model.Side, players RoomPlayers, physics model.PhysicsState) InitialStateFrame {
	return InitialStateFrame{
		Type:        TypeInitialState,
		Room:        room,
		Mode:        mode,
		State:       state,
		Slot:        slot,
		Players:     players,
		BallX:       physics.Ball.X,
		BallY:       physics.Ball.Y,
		PaddleLeft:  physics.PaddleLeft,
		PaddleRight: physics.PaddleRight,
		ScoreLeft:   physics.ScoreLeft,
		ScoreRight:  physics.ScoreRight,
	}
}
