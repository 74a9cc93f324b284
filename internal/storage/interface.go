package storage

import (
	"context"

	"github.com/mcoot/pongserver/internal/model"
)

// Storage defines the interface for data shared beyond a single process:
// the presence mirror, pending invitations and match history.
// Live sessions are never stored; they only exist in the registry.
type Storage interface {
	// Presence operations
	AddOnlinePlayer(ctx context.Context, player model.PlayerID) error
	RemoveOnlinePlayer(ctx context.Context, player model.PlayerID) error
	ListOnlinePlayers(ctx context.Context) ([]model.PlayerID, error)
	// ClearOnlinePlayers drops every member, e.g. ones left behind by a crash
	ClearOnlinePlayers(ctx context.Context) error

	// Invitation operations
	SaveInvitation(ctx context.Context, inv *model.Invitation) error
	GetInvitation(ctx context.Context, from, to model.PlayerID) (*model.Invitation, error)
	DeleteInvitation(ctx context.Context, from, to model.PlayerID) error
	ListInvitations(ctx context.Context) ([]*model.Invitation, error)

	// Match history operations
	SaveMatchResult(ctx context.Context, result *model.MatchResult) error
	ListMatchResults(ctx context.Context, player model.PlayerID, limit int) ([]*model.MatchResult, error)
}

// DefaultHistoryLimit is how many results are kept per player
const DefaultHistoryLimit = 100
