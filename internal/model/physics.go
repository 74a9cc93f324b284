package model

import "math"

// Field geometry in percentage units
const (
	FieldSize   = 100.0
	FieldCenter = FieldSize / 2
)

// Side identifies one of the two paddle slots
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Sides lists both slots in index order
var Sides = [2]Side{SideLeft, SideRight}

// Valid reports whether s names a real slot
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// Opponent returns the opposite slot
func (s Side) Opponent() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// Index returns 0 for the left slot and 1 for the right slot
func (s Side) Index() int {
	if s == SideRight {
		return 1
	}
	return 0
}

// LegacyKey returns the paddle_1/paddle_2 name older clients use
func (s Side) LegacyKey() string {
	if s == SideRight {
		return "paddle_2"
	}
	return "paddle_1"
}

// ParseSide accepts both the canonical and legacy paddle names
func ParseSide(v string) (Side, error) {
	switch v {
	case "left", "paddle_1", "player1":
		return SideLeft, nil
	case "right", "paddle_2", "player2":
		return SideRight, nil
	default:
		return "", ErrInvalidSide
	}
}

// Vector2 is a point or velocity on the field
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v+o
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v*k
func (v Vector2) Scale(k float64) Vector2 {
	return Vector2{X: v.X * k, Y: v.Y * k}
}

// Length returns the euclidean norm of v
func (v Vector2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// PhysicsState is the authoritative state of one match.
// Paddle values are paddle centers.
type PhysicsState struct {
	Ball         Vector2 `json:"ball"`
	BallVelocity Vector2 `json:"ball_velocity"`
	PaddleLeft   float64 `json:"paddle_left"`
	PaddleRight  float64 `json:"paddle_right"`
	ScoreLeft    int     `json:"score_left"`
	ScoreRight   int     `json:"score_right"`
}

// Paddle returns the paddle center for a side
func (p PhysicsState) Paddle(side Side) float64 {
	if side == SideRight {
		return p.PaddleRight
	}
	return p.PaddleLeft
}

// SetPaddle sets the paddle center for a side
func (p *PhysicsState) SetPaddle(side Side, center float64) {
	if side == SideRight {
		p.PaddleRight = center
		return
	}
	p.PaddleLeft = center
}

// Score returns the score for a side
func (p PhysicsState) Score(side Side) int {
	if side == SideRight {
		return p.ScoreRight
	}
	return p.ScoreLeft
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
