package engine

import (
	"errors"
	"math"
)

// Config holds the match rules and field geometry. Speeds are in field
// units per step.
type Config struct {
	WinningScore int

	PaddleHalfHeight float64
	PaddleLeftX      float64 // Face of the left paddle
	PaddleRightX     float64 // Face of the right paddle
	BallRadius       float64

	MaxPaddleSpeed float64

	ServeSpeed    float64
	MaxServeAngle float64 // Radians either side of horizontal
	SpeedUp       float64 // Horizontal speed multiplier per paddle hit
	MaxBallSpeed  float64 // Bound on each velocity component
	MaxDeflection float64 // Vertical velocity added at the paddle edge
}

// DefaultConfig returns the classic rules: first to 5, 20-unit paddles
func DefaultConfig() Config {
	return Config{
		WinningScore:     5,
		PaddleHalfHeight: 10,
		PaddleLeftX:      5,
		PaddleRightX:     95,
		BallRadius:       1.25,
		MaxPaddleSpeed:   3,
		ServeSpeed:       1.2,
		MaxServeAngle:    math.Pi / 5,
		SpeedUp:          1.05,
		MaxBallSpeed:     3,
		MaxDeflection:    0.8,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WinningScore == 0 {
		c.WinningScore = d.WinningScore
	}
	if c.PaddleHalfHeight == 0 {
		c.PaddleHalfHeight = d.PaddleHalfHeight
	}
	if c.PaddleLeftX == 0 {
		c.PaddleLeftX = d.PaddleLeftX
	}
	if c.PaddleRightX == 0 {
		c.PaddleRightX = d.PaddleRightX
	}
	if c.BallRadius == 0 {
		c.BallRadius = d.BallRadius
	}
	if c.MaxPaddleSpeed == 0 {
		c.MaxPaddleSpeed = d.MaxPaddleSpeed
	}
	if c.ServeSpeed == 0 {
		c.ServeSpeed = d.ServeSpeed
	}
	if c.MaxServeAngle == 0 {
		c.MaxServeAngle = d.MaxServeAngle
	}
	if c.SpeedUp == 0 {
		c.SpeedUp = d.SpeedUp
	}
	if c.MaxBallSpeed == 0 {
		c.MaxBallSpeed = d.MaxBallSpeed
	}
	if c.MaxDeflection == 0 {
		c.MaxDeflection = d.MaxDeflection
	}
	return c
}

// Validate rejects geometry that would divide by zero or place paddles off the field
func (c Config) Validate() error {
	var errs []error
	if c.WinningScore < 1 {
		errs = append(errs, errors.New("winning score must be at least 1"))
	}
	if c.PaddleHalfHeight <= 0 || c.PaddleHalfHeight >= 50 {
		errs = append(errs, errors.New("paddle half height must be in (0, 50)"))
	}
	if c.PaddleLeftX <= 0 || c.PaddleRightX >= 100 || c.PaddleLeftX >= c.PaddleRightX {
		errs = append(errs, errors.New("paddle faces must satisfy 0 < left < right < 100"))
	}
	if c.BallRadius < 0 || c.BallRadius >= 50 {
		errs = append(errs, errors.New("ball radius must be in [0, 50)"))
	}
	if c.MaxPaddleSpeed <= 0 {
		errs = append(errs, errors.New("max paddle speed must be positive"))
	}
	if c.ServeSpeed <= 0 || c.ServeSpeed > c.MaxBallSpeed {
		errs = append(errs, errors.New("serve speed must be positive and within max ball speed"))
	}
	if c.MaxServeAngle < 0 || c.MaxServeAngle >= math.Pi/2 {
		errs = append(errs, errors.New("max serve angle must be in [0, pi/2)"))
	}
	if c.SpeedUp < 1 {
		errs = append(errs, errors.New("speed up must be at least 1"))
	}
	return errors.Join(errs...)
}
