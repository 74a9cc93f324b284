package model

import "time"

// ResultReason records how a session reached Finished
type ResultReason string

const (
	ResultCompleted ResultReason = "completed" // Winning score reached
	ResultAbandoned ResultReason = "abandoned" // A bound connection closed
	ResultClosed    ResultReason = "closed"    // Force-finished by idle sweep or operator
)

// MatchResult is the final outcome reported to the match-history recorder
type MatchResult struct {
	ID          string       `json:"id"`
	RoomID      RoomID       `json:"room_id"`
	Mode        SessionMode  `json:"mode"`
	PlayerLeft  PlayerID     `json:"player_left"`
	PlayerRight PlayerID     `json:"player_right"`
	Winner      PlayerID     `json:"winner,omitempty"`
	WinnerSide  Side         `json:"winner_side,omitempty"`
	ScoreLeft   int          `json:"score_left"`
	ScoreRight  int          `json:"score_right"`
	Reason      ResultReason `json:"reason"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

// Players returns both participants, skipping empty slots
func (r *MatchResult) Players() []PlayerID {
	players := make([]PlayerID, 0, 2)
	for _, p := range []PlayerID{r.PlayerLeft, r.PlayerRight} {
		if p != "" {
			players = append(players, p)
		}
	}
	return players
}
