package engine

import (
	"math"

	"github.com/mcoot/pongserver/internal/dependencies/random"
	"github.com/mcoot/pongserver/internal/model"
)

// Inputs holds the requested paddle velocity for each side
type Inputs struct {
	Left  float64
	Right float64
}

// Velocity returns the input for a side
func (in Inputs) Velocity(side model.Side) float64 {
	if side == model.SideRight {
		return in.Right
	}
	return in.Left
}

// EventType identifies what happened during a step
type EventType string

const (
	EventNone      EventType = ""
	EventScored    EventType = "scored"
	EventMatchOver EventType = "match_over"
)

// Event is the outcome of one step. Side is the scoring side for
// EventScored and the winner for EventMatchOver.
type Event struct {
	Type       EventType
	Side       model.Side
	ScoreLeft  int
	ScoreRight int
}

// Engine advances a match one fixed step at a time. It keeps no match
// state of its own besides the random source, so the same seed and input
// sequence reproduce the same states. Not safe for concurrent use.
type Engine struct {
	cfg Config
	rng random.Random
}

// New creates an Engine. Zero config fields take their defaults.
func New(cfg Config, rng random.Random) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, rng: rng}, nil
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// NewMatch returns a fresh state with the ball served in a random direction
func (e *Engine) NewMatch() model.PhysicsState {
	state := model.PhysicsState{}
	toward := model.SideLeft
	if e.rng.Intn(2) == 1 {
		toward = model.SideRight
	}
	e.resetRally(&state, toward)
	return state
}

// Winner reports the winning side once either score reaches the threshold
func (e *Engine) Winner(state model.PhysicsState) (model.Side, bool) {
	switch {
	case state.ScoreLeft >= e.cfg.WinningScore:
		return model.SideLeft, true
	case state.ScoreRight >= e.cfg.WinningScore:
		return model.SideRight, true
	default:
		return "", false
	}
}

// Step advances the state by dt steps. Collisions resolve in order: walls,
// then paddle faces, then scoring. A finished match is returned unchanged.
func (e *Engine) Step(state model.PhysicsState, in Inputs, dt float64) (model.PhysicsState, Event) {
	if _, over := e.Winner(state); over || dt <= 0 {
		return state, Event{}
	}

	for _, side := range model.Sides {
		v := e.clampPaddleSpeed(in.Velocity(side))
		state.SetPaddle(side, e.clampPaddle(state.Paddle(side)+v*dt))
	}

	prev := state.Ball
	state.Ball = state.Ball.Add(state.BallVelocity.Scale(dt))

	e.reflectWalls(&state)
	e.resolvePaddles(&state, prev)

	var scorer model.Side
	switch {
	case state.Ball.X < 0:
		scorer = model.SideRight
	case state.Ball.X > model.FieldSize:
		scorer = model.SideLeft
	default:
		return state, Event{}
	}

	if scorer == model.SideLeft {
		state.ScoreLeft++
	} else {
		state.ScoreRight++
	}
	e.resetRally(&state, scorer.Opponent())

	ev := Event{Type: EventScored, Side: scorer, ScoreLeft: state.ScoreLeft, ScoreRight: state.ScoreRight}
	if winner, over := e.Winner(state); over {
		ev.Type = EventMatchOver
		ev.Side = winner
	}
	return state, ev
}

// clampPaddle bounds a paddle center so its span stays on the field
func (e *Engine) clampPaddle(center float64) float64 {
	half := e.cfg.PaddleHalfHeight
	return model.Clamp(center, half, model.FieldSize-half)
}

func (e *Engine) clampPaddleSpeed(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return model.Clamp(v, -e.cfg.MaxPaddleSpeed, e.cfg.MaxPaddleSpeed)
}

func (e *Engine) reflectWalls(state *model.PhysicsState) {
	r := e.cfg.BallRadius
	top, bottom := r, model.FieldSize-r
	if state.Ball.Y < top {
		state.Ball.Y = 2*top - state.Ball.Y
		state.BallVelocity.Y = math.Abs(state.BallVelocity.Y)
	} else if state.Ball.Y > bottom {
		state.Ball.Y = 2*bottom - state.Ball.Y
		state.BallVelocity.Y = -math.Abs(state.BallVelocity.Y)
	}
	// A very fast ball can overshoot the mirror image
	state.Ball.Y = model.Clamp(state.Ball.Y, top, bottom)
}

func (e *Engine) resolvePaddles(state *model.PhysicsState, prev model.Vector2) {
	r := e.cfg.BallRadius
	vx := state.BallVelocity.X

	if vx < 0 {
		face := e.cfg.PaddleLeftX
		if prev.X-r >= face && state.Ball.X-r <= face && e.onPaddle(state.Ball.Y, state.PaddleLeft) {
			state.Ball.X = face + r
			e.bounce(state, state.PaddleLeft, 1)
		}
		return
	}
	if vx > 0 {
		face := e.cfg.PaddleRightX
		if prev.X+r <= face && state.Ball.X+r >= face && e.onPaddle(state.Ball.Y, state.PaddleRight) {
			state.Ball.X = face - r
			e.bounce(state, state.PaddleRight, -1)
		}
	}
}

func (e *Engine) onPaddle(ballY, paddle float64) bool {
	return math.Abs(ballY-paddle) <= e.cfg.PaddleHalfHeight
}

// bounce sends the ball back in direction dir with a speed increase and an
// angle change proportional to the hit offset from the paddle center
func (e *Engine) bounce(state *model.PhysicsState, paddle float64, dir float64) {
	maxSpeed := e.cfg.MaxBallSpeed
	speedX := math.Min(math.Abs(state.BallVelocity.X)*e.cfg.SpeedUp, maxSpeed)
	state.BallVelocity.X = dir * speedX

	offset := (state.Ball.Y - paddle) / e.cfg.PaddleHalfHeight
	state.BallVelocity.Y = model.Clamp(state.BallVelocity.Y+offset*e.cfg.MaxDeflection, -maxSpeed, maxSpeed)
}

// resetRally recenters ball and paddles and serves toward a side
func (e *Engine) resetRally(state *model.PhysicsState, toward model.Side) {
	state.Ball = model.Vector2{X: model.FieldCenter, Y: model.FieldCenter}
	state.PaddleLeft = model.FieldCenter
	state.PaddleRight = model.FieldCenter

	angle := (e.rng.Float64()*2 - 1) * e.cfg.MaxServeAngle
	dir := 1.0
	if toward == model.SideLeft {
		dir = -1
	}
	state.BallVelocity = model.Vector2{
		X: dir * math.Cos(angle) * e.cfg.ServeSpeed,
		Y: math.Sin(angle) * e.cfg.ServeSpeed,
	}
}
