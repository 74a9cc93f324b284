package session

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mcoot/pongserver/internal/dependencies/clock"
	"github.com/mcoot/pongserver/internal/dependencies/random"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/protocol"
	"github.com/mcoot/pongserver/internal/services/ai"
	"github.com/mcoot/pongserver/internal/services/engine"
)

// Peer is a connection bound to a session. Send must not block.
type Peer interface {
	ID() string
	Player() model.PlayerID
	Send(frame []byte) bool
}

// Recorder receives final results. Record must not block.
type Recorder interface {
	Record(result model.MatchResult)
}

// InputSource requests a paddle velocity every tick for a slot no
// connection controls
type InputSource interface {
	NextVelocity(state model.PhysicsState) float64
}

// Params identifies a new session
type Params struct {
	ID      model.RoomID
	Mode    model.SessionMode
	Players [2]model.PlayerID // Reserved identity per slot; empty means first joiner
	// OnFinished runs once after the terminal broadcast
	OnFinished func(id model.RoomID)
}

// Session is one room. All state below the commands channel is owned by
// the run goroutine; other goroutines reach it through exec. Input levels
// are the exception: connections overwrite them directly.
type Session struct {
	id         model.RoomID
	mode       model.SessionMode
	cfg        Config
	clock      clock.Clock
	engine     *engine.Engine
	recorder   Recorder
	onFinished func(model.RoomID)
	logger     *slog.Logger

	inputs [2]atomic.Uint64 // math.Float64bits of the requested velocity
	robot  InputSource      // Drives the right slot in vs_ai
	ticker clock.Ticker
	levels [2]float64 // Levels applied on the previous tick

	commands chan func()
	done     chan struct{}

	state        model.SessionState
	physics      model.PhysicsState
	tick         uint64
	reserved     [2]model.PlayerID
	peers        [2]Peer
	createdAt    time.Time
	startedAt    time.Time
	lastActivity time.Time
}

// New creates a session in Waiting and starts its goroutine
func New(params Params, cfg Config, clk clock.Clock, rng random.Random, recorder Recorder, logger *slog.Logger) (*Session, error) {
	cfg = cfg.withDefaults()
	if _, ok := model.ParseAbandonPolicy(string(cfg.AbandonPolicy)); !ok {
		return nil, fmt.Errorf("invalid abandon policy %q", cfg.AbandonPolicy)
	}
	if _, err := model.ParseSessionMode(string(params.Mode)); err != nil {
		return nil, err
	}

	eng, err := engine.New(cfg.Engine, rng)
	if err != nil {
		return nil, err
	}

	now := clk.Now()
	s := &Session{
		id:           params.ID,
		mode:         params.Mode,
		cfg:          cfg,
		clock:        clk,
		engine:       eng,
		recorder:     recorder,
		onFinished:   params.OnFinished,
		logger:       logger.With(slog.String("component", "session"), slog.String("room", string(params.ID))),
		commands:     make(chan func()),
		done:         make(chan struct{}),
		state:        model.SessionStateForming,
		physics:      eng.NewMatch(),
		reserved:     params.Players,
		createdAt:    now,
		lastActivity: now,
	}

	switch params.Mode {
	case model.ModeVsAI:
		s.reserved[1] = model.AIPlayer
		s.robot = ai.New(cfg.AI, eng.Config(), model.SideRight, rng)
	case model.ModeLocal:
		s.reserved[1] = s.reserved[0]
	}

	s.state = model.SessionStateWaiting
	go s.run()
	s.logger.Info("session created", slog.String("mode", string(s.mode)))
	return s, nil
}

// ID returns the room id
func (s *Session) ID() model.RoomID {
	return s.id
}

// Mode returns the session mode
func (s *Session) Mode() model.SessionMode {
	return s.mode
}

// Done is closed once the session has finished
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) run() {
	defer func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
		if s.onFinished != nil {
			s.onFinished(s.id)
		}
	}()

	for s.state != model.SessionStateFinished {
		var tickC <-chan time.Time
		if s.ticker != nil {
			tickC = s.ticker.C()
		}
		select {
		case fn := <-s.commands:
			fn()
		case <-tickC:
			s.step()
		}
	}
}

// exec runs fn on the session goroutine and waits for it
func (s *Session) exec(fn func()) error {
	finished := make(chan struct{})
	select {
	case s.commands <- func() { defer close(finished); fn() }:
	case <-s.done:
		return model.ErrSessionFinished
	}
	<-finished
	return nil
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() (model.SessionSummary, error) {
	var summary model.SessionSummary
	err := s.exec(func() {
		summary = model.SessionSummary{
			RoomID:       s.id,
			Mode:         s.mode,
			State:        s.state,
			Players:      s.reserved,
			Bound:        [2]bool{s.slotBound(0), s.slotBound(1)},
			Physics:      s.physics,
			Tick:         s.tick,
			CreatedAt:    s.createdAt,
			LastActivity: s.lastActivity,
		}
	})
	return summary, err
}

// Bind attaches a connection to a free slot. In local_dual_control one
// connection takes both slots.
func (s *Session) Bind(peer Peer) (*Seat, error) {
	var seat *Seat
	var bindErr error
	err := s.exec(func() {
		seat, bindErr = s.bind(peer)
	})
	if err != nil {
		return nil, err
	}
	return seat, bindErr
}

func (s *Session) bind(peer Peer) (*Seat, error) {
	if s.state != model.SessionStateWaiting {
		return nil, model.ErrSlotUnavailable
	}

	var sides []model.Side
	switch s.mode {
	case model.ModeTwoPlayer:
		side, ok := s.freeSlotFor(peer.Player())
		if !ok {
			return nil, model.ErrSlotUnavailable
		}
		sides = []model.Side{side}
	case model.ModeVsAI:
		if !s.canTake(0, peer.Player()) {
			return nil, model.ErrSlotUnavailable
		}
		sides = []model.Side{model.SideLeft}
	case model.ModeLocal:
		if !s.canTake(0, peer.Player()) {
			return nil, model.ErrSlotUnavailable
		}
		sides = []model.Side{model.SideLeft, model.SideRight}
	}

	for _, side := range sides {
		s.reserved[side.Index()] = peer.Player()
		s.peers[side.Index()] = peer
	}
	s.lastActivity = s.clock.Now()
	s.logger.Info("connection bound",
		slog.String("conn_id", peer.ID()),
		slog.String("player_id", string(peer.Player())),
		slog.String("slot", string(sides[0])))

	if s.ready() {
		s.state = model.SessionStateCountdown
	}

	s.sendTo(peer, protocol.NewInitialState(s.id, s.mode, s.state, sides[0], s.roster(), s.physics))
	s.broadcast(protocol.NewRoomUpdate(s.id, s.mode, s.state, s.roster()))

	return &Seat{session: s, peer: peer, sides: sides}, nil
}

// freeSlotFor prefers the slot reserved for player, then any unreserved one
func (s *Session) freeSlotFor(player model.PlayerID) (model.Side, bool) {
	for _, side := range model.Sides {
		if s.reserved[side.Index()] == player {
			return side, s.peers[side.Index()] == nil
		}
	}
	for _, side := range model.Sides {
		i := side.Index()
		if s.reserved[i] == "" && s.peers[i] == nil {
			return side, true
		}
	}
	return "", false
}

func (s *Session) canTake(i int, player model.PlayerID) bool {
	return s.peers[i] == nil && (s.reserved[i] == "" || s.reserved[i] == player)
}

func (s *Session) slotBound(i int) bool {
	if s.robot != nil && i == model.SideRight.Index() {
		return true
	}
	return s.peers[i] != nil
}

func (s *Session) ready() bool {
	return s.slotBound(0) && s.slotBound(1)
}

func (s *Session) roster() protocol.RoomPlayers {
	var players [2]model.PlayerID
	for i := range players {
		if s.slotBound(i) {
			players[i] = s.reserved[i]
		}
	}
	return protocol.RoomPlayers{Player1: players[0], Player2: players[1]}
}

// start moves Countdown to Playing. Repeating it while Playing is a no-op.
func (s *Session) start(peer Peer) error {
	if !s.holds(peer) {
		return model.ErrNotBound
	}
	switch s.state {
	case model.SessionStatePlaying:
		return nil
	case model.SessionStateCountdown:
	default:
		return model.ErrNotReady
	}

	now := s.clock.Now()
	s.state = model.SessionStatePlaying
	s.startedAt = now
	s.lastActivity = now
	s.ticker = s.clock.NewTicker(s.cfg.TickInterval)
	s.logger.Info("match started", slog.String("player_id", string(peer.Player())))
	s.broadcast(protocol.NewRoomUpdate(s.id, s.mode, s.state, s.roster()))
	return nil
}

// unbind handles a bound connection closing
func (s *Session) unbind(peer Peer) {
	var left []model.Side
	for _, side := range model.Sides {
		if p := s.peers[side.Index()]; p != nil && p.ID() == peer.ID() {
			s.peers[side.Index()] = nil
			left = append(left, side)
		}
	}
	if len(left) == 0 {
		return
	}
	s.logger.Info("connection left",
		slog.String("conn_id", peer.ID()),
		slog.String("state", string(s.state)))

	winner := model.Side("")
	if s.cfg.AbandonPolicy == model.AbandonOpponentWins && len(left) == 1 {
		if opp := left[0].Opponent(); s.slotBound(opp.Index()) {
			winner = opp
		}
	}
	s.finish(model.ResultAbandoned, winner)
}

// step runs one engine tick and broadcasts the result
func (s *Session) step() {
	in := engine.Inputs{
		Left:  s.input(model.SideLeft),
		Right: s.input(model.SideRight),
	}
	next, ev := s.engine.Step(s.physics, in, 1)
	s.physics = next
	s.tick++

	// update_paddle answers a change of requested level. Per-tick positions
	// ride on game_update.
	for _, side := range model.Sides {
		level := in.Left
		if side == model.SideRight {
			level = in.Right
		}
		if level != s.levels[side.Index()] {
			s.levels[side.Index()] = level
			s.broadcast(protocol.NewUpdatePaddle(side, next.Paddle(side)))
		}
	}
	s.broadcast(protocol.NewGameUpdate(s.tick, next))

	if ev.Type == engine.EventMatchOver {
		s.finish(model.ResultCompleted, ev.Side)
	}
}

func (s *Session) input(side model.Side) float64 {
	if s.robot != nil && side == model.SideRight {
		return s.robot.NextVelocity(s.physics)
	}
	return math.Float64frombits(s.inputs[side.Index()].Load())
}

func (s *Session) setInput(side model.Side, velocity float64) {
	s.inputs[side.Index()].Store(math.Float64bits(velocity))
}

// finish broadcasts game_over, reports the result if a match was played
// and ends the run loop
func (s *Session) finish(reason model.ResultReason, winner model.Side) {
	if s.state == model.SessionStateFinished {
		return
	}
	started := s.state == model.SessionStatePlaying
	s.state = model.SessionStateFinished
	if s.ticker != nil {
		s.ticker.Stop()
	}

	result := model.MatchResult{
		ID:          uuid.NewString(),
		RoomID:      s.id,
		Mode:        s.mode,
		PlayerLeft:  s.reserved[0],
		PlayerRight: s.reserved[1],
		WinnerSide:  winner,
		ScoreLeft:   s.physics.ScoreLeft,
		ScoreRight:  s.physics.ScoreRight,
		Reason:      reason,
		StartedAt:   s.startedAt,
		FinishedAt:  s.clock.Now(),
	}
	if winner.Valid() {
		result.Winner = s.reserved[winner.Index()]
	}

	s.broadcast(protocol.NewGameOver(&result))
	s.logger.Info("session finished",
		slog.String("reason", string(reason)),
		slog.String("winner", string(result.Winner)),
		slog.Int("score_left", result.ScoreLeft),
		slog.Int("score_right", result.ScoreRight),
		slog.Uint64("ticks", s.tick))

	if started && s.recorder != nil {
		s.recorder.Record(result)
	}
}

// Close force-finishes the session with no winner. Closing a finished
// session is a no-op.
func (s *Session) Close() {
	_ = s.exec(func() {
		s.finish(model.ResultClosed, "")
	})
}

func (s *Session) holds(peer Peer) bool {
	for _, p := range s.peers {
		if p != nil && p.ID() == peer.ID() {
			return true
		}
	}
	return false
}

// broadcast sends a frame once to every distinct bound connection
func (s *Session) broadcast(frame any) {
	data, err := protocol.Encode(frame)
	if err != nil {
		s.logger.Error("failed to encode frame", slog.String("error", err.Error()))
		return
	}
	for i, p := range s.peers {
		if p == nil || (i == 1 && s.peers[0] != nil && s.peers[0].ID() == p.ID()) {
			continue
		}
		if !p.Send(data) {
			s.logger.Debug("frame not delivered, connection closing", slog.String("conn_id", p.ID()))
		}
	}
}

func (s *Session) sendTo(peer Peer, frame any) {
	data, err := protocol.Encode(frame)
	if err != nil {
		s.logger.Error("failed to encode frame", slog.String("error", err.Error()))
		return
	}
	peer.Send(data)
}
