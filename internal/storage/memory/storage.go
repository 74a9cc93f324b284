package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	online       map[model.PlayerID]struct{}
	invitations  map[invitationKey]*model.Invitation
	history      map[model.PlayerID][]*model.MatchResult
	historyLimit int
}

type invitationKey struct {
	from model.PlayerID
	to   model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		online:       make(map[model.PlayerID]struct{}),
		invitations:  make(map[invitationKey]*model.Invitation),
		history:      make(map[model.PlayerID][]*model.MatchResult),
		historyLimit: storage.DefaultHistoryLimit,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Presence operations

func (s *Storage) AddOnlinePlayer(ctx context.Context, player model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[player] = struct{}{}
	return nil
}

func (s *Storage) RemoveOnlinePlayer(ctx context.Context, player model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.online, player)
	return nil
}

func (s *Storage) ListOnlinePlayers(ctx context.Context) ([]model.PlayerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]model.PlayerID, 0, len(s.online))
	for p := range s.online {
		players = append(players, p)
	}
	slices.Sort(players)
	return players, nil
}

func (s *Storage) ClearOnlinePlayers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.online)
	return nil
}

// Invitation operations

func (s *Storage) SaveInvitation(ctx context.Context, inv *model.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *inv
	s.invitations[invitationKey{inv.From, inv.To}] = &stored
	return nil
}

func (s *Storage) GetInvitation(ctx context.Context, from, to model.PlayerID) (*model.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[invitationKey{from, to}]
	if !ok {
		return nil, model.ErrInvitationNotFound
	}
	found := *inv
	return &found, nil
}

func (s *Storage) DeleteInvitation(ctx context.Context, from, to model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invitations, invitationKey{from, to})
	return nil
}

func (s *Storage) ListInvitations(ctx context.Context) ([]*model.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invitations := make([]*model.Invitation, 0, len(s.invitations))
	for _, inv := range s.invitations {
		found := *inv
		invitations = append(invitations, &found)
	}
	return invitations, nil
}

// Match history operations

func (s *Storage) SaveMatchResult(ctx context.Context, result *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, player := range result.Players() {
		stored := *result
		list := append([]*model.MatchResult{&stored}, s.history[player]...)
		if len(list) > s.historyLimit {
			list = list[:s.historyLimit]
		}
		s.history[player] = list
	}
	return nil
}

func (s *Storage) ListMatchResults(ctx context.Context, player model.PlayerID, limit int) ([]*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.history[player]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	results := make([]*model.MatchResult, len(list))
	for i, r := range list {
		found := *r
		results[i] = &found
	}
	return results, nil
}
