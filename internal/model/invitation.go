package model

import "time"

// InvitationStatus tracks the single transition an invitation makes
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationCancelled InvitationStatus = "cancelled"
	InvitationExpired   InvitationStatus = "expired"
)

// Invitation is a pending proposal to form a two-player session
type Invitation struct {
	From      PlayerID         `json:"from"`
	To        PlayerID         `json:"to"`
	Status    InvitationStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Expired reports whether the invitation has outlived its deadline
func (i *Invitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Involves reports whether the player is either party
func (i *Invitation) Involves(player PlayerID) bool {
	return i.From == player || i.To == player
}

// Counterpart returns the other party, or empty if the player is not involved
func (i *Invitation) Counterpart(player PlayerID) PlayerID {
	switch player {
	case i.From:
		return i.To
	case i.To:
		return i.From
	default:
		return ""
	}
}
