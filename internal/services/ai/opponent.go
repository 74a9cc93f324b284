package ai

import (
	"math"

	"github.com/mcoot/pongserver/internal/dependencies/random"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/engine"
)

// maxPredictSteps bounds the rally simulation for near-vertical balls
const maxPredictSteps = 10000

// Config tunes how well the opponent plays
type Config struct {
	RetargetEvery uint64  // Ticks between predictions (60 at 16ms is about 1s)
	MaxSpeed      float64 // Paddle units per tick
	Deadband      float64 // Distance at which the paddle snaps onto its target
	MaxError      float64 // Uniform aiming error either side of the prediction
}

// DefaultConfig returns a beatable opponent
func DefaultConfig() Config {
	return Config{
		RetargetEvery: 60,
		MaxSpeed:      2,
		Deadband:      0.5,
		MaxError:      3,
	}
}

// Opponent drives one paddle by requesting a velocity every tick, the
// same contract a human connection uses. It re-aims periodically rather
// than every tick, so it reacts to where the ball was, not where it is.
type Opponent struct {
	cfg      Config
	geometry engine.Config
	side     model.Side
	rng      random.Random

	ticks  uint64
	target float64
}

// New creates an opponent controlling side
func New(cfg Config, geometry engine.Config, side model.Side, rng random.Random) *Opponent {
	d := DefaultConfig()
	if cfg.RetargetEvery == 0 {
		cfg.RetargetEvery = d.RetargetEvery
	}
	if cfg.MaxSpeed == 0 {
		cfg.MaxSpeed = d.MaxSpeed
	}
	return &Opponent{
		cfg:      cfg,
		geometry: geometry,
		side:     side,
		rng:      rng,
		target:   model.FieldCenter,
	}
}

// Side returns the controlled slot
func (o *Opponent) Side() model.Side {
	return o.side
}

// Target returns the paddle center the opponent is currently steering to
func (o *Opponent) Target() float64 {
	return o.target
}

// NextVelocity returns the requested paddle velocity for this tick
func (o *Opponent) NextVelocity(state model.PhysicsState) float64 {
	paddle := state.Paddle(o.side)
	if o.ticks%o.cfg.RetargetEvery == 0 {
		o.retarget(state, paddle)
	}
	o.ticks++

	dist := o.target - paddle
	if math.Abs(dist) < o.cfg.Deadband {
		return dist
	}
	return model.Clamp(dist, -o.cfg.MaxSpeed, o.cfg.MaxSpeed)
}

func (o *Opponent) retarget(state model.PhysicsState, paddle float64) {
	y, ok := PredictArrival(state, o.geometry, o.side)
	if !ok {
		o.target = paddle
		return
	}
	aimError := (o.rng.Float64()*2 - 1) * o.cfg.MaxError
	o.target = y + aimError
}

// PredictArrival simulates the ball to the paddle face of side, assuming the
// far paddle returns it, and reports the vertical position on arrival.
func PredictArrival(state model.PhysicsState, geometry engine.Config, side model.Side) (float64, bool) {
	x, y := state.Ball.X, state.Ball.Y
	vx, vy := state.BallVelocity.X, state.BallVelocity.Y
	if vx == 0 {
		return 0, false
	}

	near, far := geometry.PaddleRightX, geometry.PaddleLeftX
	if side == model.SideLeft {
		near, far = far, near
	}
	towardNear := (near > far) == (vx > 0)

	top, bottom := geometry.BallRadius, model.FieldSize-geometry.BallRadius
	advance := func() {
		x += vx
		y += vy
		if y <= top {
			y = 2*top - y
			vy = -vy
		} else if y >= bottom {
			y = 2*bottom - y
			vy = -vy
		}
	}
	reached := func(face float64) bool {
		if vx > 0 {
			return x >= face
		}
		return x <= face
	}

	steps := 0
	if !towardNear {
		for !reached(far) {
			if steps++; steps > maxPredictSteps {
				return 0, false
			}
			advance()
		}
		vx = -vx
	}
	for !reached(near) {
		if steps++; steps > maxPredictSteps {
			return 0, false
		}
		advance()
	}
	return model.Clamp(y, 0, model.FieldSize), true
}
