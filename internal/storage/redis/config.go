package redis

import (
	"time"

	"github.com/mcoot/pongserver/internal/storage"
)

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// InvitationTTL bounds how long a mirrored invitation outlives a crashed
	// coordinator. Keep it above the coordinator's invite timeout.
	InvitationTTL time.Duration

	// History settings
	HistoryLimit int
	HistoryTTL   time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		InvitationTTL: time.Minute,
		HistoryLimit:  storage.DefaultHistoryLimit,
		HistoryTTL:    30 * 24 * time.Hour,
	}
}
