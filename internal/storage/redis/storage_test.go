package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pongserver/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.InvitationTTL = time.Minute
	cfg.HistoryLimit = 3
	cfg.HistoryTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Presence tests

func (s *StorageSuite) TestOnlinePlayers() {
	s.Require().NoError(s.storage.AddOnlinePlayer(s.ctx, "carol"))
	s.Require().NoError(s.storage.AddOnlinePlayer(s.ctx, "alice"))

	players, err := s.storage.ListOnlinePlayers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"alice", "carol"}, players)

	ok, err := s.mini.SIsMember("pong:online", "alice")
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.storage.RemoveOnlinePlayer(s.ctx, "alice"))
	players, err = s.storage.ListOnlinePlayers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"carol"}, players)
}

func (s *StorageSuite) TestClearOnlinePlayers() {
	s.Require().NoError(s.storage.AddOnlinePlayer(s.ctx, "alice"))
	s.Require().NoError(s.storage.AddOnlinePlayer(s.ctx, "bob"))

	s.Require().NoError(s.storage.ClearOnlinePlayers(s.ctx))
	players, err := s.storage.ListOnlinePlayers(s.ctx)
	s.Require().NoError(err)
	s.Empty(players)

	// Clearing an empty set is fine
	s.Require().NoError(s.storage.ClearOnlinePlayers(s.ctx))
}

// Invitation tests

func (s *StorageSuite) TestSaveAndGetInvitation() {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	inv := &model.Invitation{
		From:      "alice",
		To:        "bob",
		Status:    model.InvitationPending,
		CreatedAt: created,
		ExpiresAt: created.Add(30 * time.Second),
	}
	s.Require().NoError(s.storage.SaveInvitation(s.ctx, inv))

	got, err := s.storage.GetInvitation(s.ctx, "alice", "bob")
	s.Require().NoError(err)
	s.Equal(inv.From, got.From)
	s.Equal(inv.To, got.To)
	s.True(inv.ExpiresAt.Equal(got.ExpiresAt))

	s.True(s.mini.Exists("pong:invite:alice:bob"))
	s.Equal(time.Minute, s.mini.TTL("pong:invite:alice:bob"))
}

func (s *StorageSuite) TestGetInvitationNotFound() {
	_, err := s.storage.GetInvitation(s.ctx, "alice", "bob")
	s.ErrorIs(err, model.ErrInvitationNotFound)
}

func (s *StorageSuite) TestInvitationExpiresByTTL() {
	s.Require().NoError(s.storage.SaveInvitation(s.ctx, &model.Invitation{From: "alice", To: "bob"}))
	s.mini.FastForward(2 * time.Minute)

	_, err := s.storage.GetInvitation(s.ctx, "alice", "bob")
	s.ErrorIs(err, model.ErrInvitationNotFound)

	// Listing prunes the stale index entry
	list, err := s.storage.ListInvitations(s.ctx)
	s.Require().NoError(err)
	s.Empty(list)
	members, err := s.mini.Members("pong:idx:invites")
	s.Require().NoError(err)
	s.Empty(members)
}

func (s *StorageSuite) TestDeleteAndListInvitations() {
	s.Require().NoError(s.storage.SaveInvitation(s.ctx, &model.Invitation{From: "alice", To: "bob"}))
	s.Require().NoError(s.storage.SaveInvitation(s.ctx, &model.Invitation{From: "carol", To: "bob"}))

	list, err := s.storage.ListInvitations(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)

	s.Require().NoError(s.storage.DeleteInvitation(s.ctx, "alice", "bob"))
	s.False(s.mini.Exists("pong:invite:alice:bob"))

	list, err = s.storage.ListInvitations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(model.PlayerID("carol"), list[0].From)
}

// Match history tests

func (s *StorageSuite) TestMatchResultsNewestFirstAndCapped() {
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.storage.SaveMatchResult(s.ctx, &model.MatchResult{
			ID:          fmt.Sprintf("r%d", i),
			PlayerLeft:  "alice",
			PlayerRight: "bob",
			ScoreLeft:   i,
		}))
	}

	results, err := s.storage.ListMatchResults(s.ctx, "alice", 0)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal("r4", results[0].ID)
	s.Equal(4, results[0].ScoreLeft)
	s.Equal("r2", results[2].ID)

	results, err = s.storage.ListMatchResults(s.ctx, "bob", 1)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal("r4", results[0].ID)

	s.Equal(time.Hour, s.mini.TTL("pong:history:alice"))
}

func (s *StorageSuite) TestMatchResultAgainstAI() {
	s.Require().NoError(s.storage.SaveMatchResult(s.ctx, &model.MatchResult{
		ID:          "r1",
		PlayerLeft:  "alice",
		PlayerRight: model.AIPlayer,
	}))

	results, err := s.storage.ListMatchResults(s.ctx, "alice", 10)
	s.Require().NoError(err)
	s.Len(results, 1)
}

func (s *StorageSuite) TestMatchResultsUnknownPlayer() {
	results, err := s.storage.ListMatchResults(s.ctx, "nobody", 10)
	s.Require().NoError(err)
	s.Empty(results)
}
