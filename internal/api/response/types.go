package response

import (
	"time"

	"github.com/mcoot/pongserver/internal/model"
)

// Slot describes one side of a room
type Slot struct {
	Side     string `json:"side"`
	PlayerID string `json:"player_id,omitempty"`
	Bound    bool   `json:"bound"`
}

// Room represents a live session in API responses
type Room struct {
	RoomID       string    `json:"room_id"`
	Mode         string    `json:"mode"`
	State        string    `json:"state"`
	Players      []Slot    `json:"players"`
	ScoreLeft    int       `json:"score_left"`
	ScoreRight   int       `json:"score_right"`
	Tick         uint64    `json:"tick"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// RoomFromModel converts a session summary
func RoomFromModel(s model.SessionSummary) Room {
	slots := make([]Slot, len(model.Sides))
	for i, side := range model.Sides {
		slots[i] = Slot{
			Side:     string(side),
			PlayerID: string(s.Players[side.Index()]),
			Bound:    s.Bound[side.Index()],
		}
	}
	return Room{
		RoomID:       string(s.RoomID),
		Mode:         string(s.Mode),
		State:        string(s.State),
		Players:      slots,
		ScoreLeft:    s.Physics.ScoreLeft,
		ScoreRight:   s.Physics.ScoreRight,
		Tick:         s.Tick,
		CreatedAt:    s.CreatedAt,
		LastActivity: s.LastActivity,
	}
}

// RoomList wraps a list of rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// Presence lists online players
type Presence struct {
	Players []string `json:"players"`
}

// PresenceFromModel converts player ids
func PresenceFromModel(players []model.PlayerID) Presence {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = string(p)
	}
	return Presence{Players: ids}
}

// MatchResult represents a finished match
type MatchResult struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	Mode        string    `json:"mode"`
	PlayerLeft  string    `json:"player_left"`
	PlayerRight string    `json:"player_right"`
	Winner      *string   `json:"winner"`
	ScoreLeft   int       `json:"score_left"`
	ScoreRight  int       `json:"score_right"`
	Reason      string    `json:"reason"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// MatchResultFromModel converts model.MatchResult
func MatchResultFromModel(r *model.MatchResult) MatchResult {
	var winner *string
	if r.Winner != "" {
		w := string(r.Winner)
		winner = &w
	}
	return MatchResult{
		ID:          r.ID,
		RoomID:      string(r.RoomID),
		Mode:        string(r.Mode),
		PlayerLeft:  string(r.PlayerLeft),
		PlayerRight: string(r.PlayerRight),
		Winner:      winner,
		ScoreLeft:   r.ScoreLeft,
		ScoreRight:  r.ScoreRight,
		Reason:      string(r.Reason),
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// History lists a player's recent matches, newest first
type History struct {
	PlayerID string        `json:"player_id"`
	Matches  []MatchResult `json:"matches"`
}
