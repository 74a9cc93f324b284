package model

import "time"

// RoomID identifies a live session
type RoomID string

// SessionMode selects how the two slots are controlled
type SessionMode string

const (
	ModeTwoPlayer SessionMode = "two_player"         // One connection per slot
	ModeVsAI      SessionMode = "vs_ai"              // Human on the left, AI on the right
	ModeLocal     SessionMode = "local_dual_control" // One connection drives both slots
)

// ParseSessionMode validates a mode string, accepting the short forms clients send
func ParseSessionMode(v string) (SessionMode, error) {
	switch v {
	case string(ModeTwoPlayer), "pong":
		return ModeTwoPlayer, nil
	case string(ModeVsAI), "pong_ai", "ai":
		return ModeVsAI, nil
	case string(ModeLocal), "local", "pong_local":
		return ModeLocal, nil
	default:
		return "", ErrInvalidMode
	}
}

// SessionState is the lifecycle state of a session
type SessionState string

const (
	SessionStateForming   SessionState = "forming"
	SessionStateWaiting   SessionState = "waiting"
	SessionStateCountdown SessionState = "countdown"
	SessionStatePlaying   SessionState = "playing"
	SessionStateFinished  SessionState = "finished"
)

// IsPreGame reports whether the match has not started yet
func (s SessionState) IsPreGame() bool {
	return s == SessionStateForming || s == SessionStateWaiting || s == SessionStateCountdown
}

// AbandonPolicy decides the winner when a player leaves mid-session
type AbandonPolicy string

const (
	AbandonNoWinner     AbandonPolicy = "no_winner"
	AbandonOpponentWins AbandonPolicy = "opponent_wins"
)

// ParseAbandonPolicy validates a policy string
func ParseAbandonPolicy(v string) (AbandonPolicy, bool) {
	switch AbandonPolicy(v) {
	case AbandonNoWinner, AbandonOpponentWins:
		return AbandonPolicy(v), true
	default:
		return "", false
	}
}

// SessionSummary is a read-only view of a session for operators
type SessionSummary struct {
	RoomID       RoomID
	Mode         SessionMode
	State        SessionState
	Players      [2]PlayerID // Reserved identity per slot, left then right
	Bound        [2]bool
	Physics      PhysicsState
	Tick         uint64
	CreatedAt    time.Time
	LastActivity time.Time
}
