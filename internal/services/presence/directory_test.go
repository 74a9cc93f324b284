package presence

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/mcoot/pongserver/internal/dependencies/mocks"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/storage/memory"
	"github.com/mcoot/pongserver/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type fakeConn struct {
	id     string
	player model.PlayerID

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) ID() string             { return c.id }
func (c *fakeConn) Player() model.PlayerID { return c.player }

func (c *fakeConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) userLists() [][]model.PlayerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var lists [][]model.PlayerID
	for _, f := range c.frames {
		var frame struct {
			Type  string           `json:"type"`
			Users []model.PlayerID `json:"users"`
		}
		if err := json.Unmarshal(f, &frame); err == nil && frame.Type == "users" {
			lists = append(lists, frame.Users)
		}
	}
	return lists
}

type DirectorySuite struct {
	suite.Suite
	storage   *memory.Storage
	clock     *mocks.MockClock
	directory *Directory
	ctx       context.Context
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.directory = New(DefaultConfig(), s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *DirectorySuite) TestAddListRemove() {
	alice := &fakeConn{id: "c1", player: "alice"}
	bob := &fakeConn{id: "c2", player: "bob"}

	s.directory.Add(s.ctx, bob)
	s.directory.Add(s.ctx, alice)
	s.Equal([]model.PlayerID{"alice", "bob"}, s.directory.List())
	s.True(s.directory.IsOnline("alice"))

	mirrored, err := s.storage.ListOnlinePlayers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"alice", "bob"}, mirrored)

	s.True(s.directory.Remove(s.ctx, alice))
	s.False(s.directory.IsOnline("alice"))
	s.Equal([]model.PlayerID{"bob"}, s.directory.List())

	mirrored, err = s.storage.ListOnlinePlayers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{"bob"}, mirrored)
}

func (s *DirectorySuite) TestSecondConnectionReplacesFirst() {
	first := &fakeConn{id: "c1", player: "alice"}
	second := &fakeConn{id: "c2", player: "alice"}

	s.directory.Add(s.ctx, first)
	s.directory.Add(s.ctx, second)
	s.True(first.isClosed())
	s.False(second.isClosed())

	// The replaced connection's close does not take the player offline
	s.False(s.directory.Remove(s.ctx, first))
	s.True(s.directory.IsOnline("alice"))

	s.True(s.directory.SendTo("alice", []byte(`{}`)))
	s.Len(second.frames, 1)
	s.Empty(first.frames)
}

func (s *DirectorySuite) TestFlushBatchesChanges() {
	alice := &fakeConn{id: "c1", player: "alice"}
	bob := &fakeConn{id: "c2", player: "bob"}
	carol := &fakeConn{id: "c3", player: "carol"}

	s.directory.Add(s.ctx, alice)
	s.directory.Add(s.ctx, bob)
	s.directory.Add(s.ctx, carol)
	s.directory.Remove(s.ctx, carol)

	s.True(s.directory.Flush())
	s.False(s.directory.Flush())

	s.Equal([][]model.PlayerID{{"alice", "bob"}}, alice.userLists())
	s.Equal([][]model.PlayerID{{"alice", "bob"}}, bob.userLists())
	s.Empty(carol.userLists())
}

func (s *DirectorySuite) TestSendToOffline() {
	s.False(s.directory.SendTo("nobody", []byte(`{}`)))
}

func (s *DirectorySuite) TestRunFlushesOnTicker() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.directory.Run(ctx)
		close(done)
	}()
	s.Eventually(func() bool { return s.clock.TickerCount() == 1 }, time.Second, 5*time.Millisecond)

	alice := &fakeConn{id: "c1", player: "alice"}
	s.directory.Add(s.ctx, alice)
	s.True(s.clock.LastTicker().Fire())

	s.Eventually(func() bool { return len(alice.userLists()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
