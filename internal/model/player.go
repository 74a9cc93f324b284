package model

import "strings"

// PlayerID uniquely identifies a player across the system.
// It is the validated username handed over by the token validator.
type PlayerID string

// AIPlayer is the identity reported for the computer-controlled slot
const AIPlayer PlayerID = "ai"

// Reserved reports whether the id belongs to the server rather than a
// person. Tokens naming a reserved id are rejected.
func (p PlayerID) Reserved() bool {
	return strings.EqualFold(strings.TrimSpace(string(p)), string(AIPlayer))
}
