package session

import (
	"time"

	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/ai"
	"github.com/mcoot/pongserver/internal/services/engine"
)

// Config holds per-session settings shared by every room
type Config struct {
	TickInterval  time.Duration
	AbandonPolicy model.AbandonPolicy
	Engine        engine.Config
	AI            ai.Config
}

// DefaultConfig returns a 16ms tick where the remaining player wins on abandonment
func DefaultConfig() Config {
	return Config{
		TickInterval:  16 * time.Millisecond,
		AbandonPolicy: model.AbandonOpponentWins,
		Engine:        engine.DefaultConfig(),
		AI:            ai.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.AbandonPolicy == "" {
		c.AbandonPolicy = d.AbandonPolicy
	}
	return c
}
