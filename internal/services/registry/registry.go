package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mcoot/pongserver/internal/dependencies/clock"
	"github.com/mcoot/pongserver/internal/dependencies/random"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/services/session"
)

const (
	// RoomIDLength is the length of generated room ids
	RoomIDLength = 8
	// RoomIDAlphabet is the characters used in room ids (url safe, no confusing chars)
	RoomIDAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

	maxIDAttempts = 16
)

// Config bounds the registry
type Config struct {
	MaxSessions   int
	IdleTimeout   time.Duration // Pre-game sessions idle this long are closed
	SweepInterval time.Duration
	Session       session.Config
}

// DefaultConfig returns the registry defaults
func DefaultConfig() Config {
	return Config{
		MaxSessions:   1000,
		IdleTimeout:   5 * time.Minute,
		SweepInterval: 30 * time.Second,
		Session:       session.DefaultConfig(),
	}
}

// Registry owns every live session. It is the only place sessions are
// created, and a session leaves it exactly once, when it finishes.
type Registry struct {
	mu       sync.RWMutex
	sessions map[model.RoomID]*session.Session

	cfg      Config
	clock    clock.Clock
	random   random.Random
	recorder session.Recorder
	logger   *slog.Logger
}

// New creates an empty registry
func New(cfg Config, clk clock.Clock, rnd random.Random, recorder session.Recorder, logger *slog.Logger) *Registry {
	d := DefaultConfig()
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = d.MaxSessions
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = d.IdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = d.SweepInterval
	}
	return &Registry{
		sessions: make(map[model.RoomID]*session.Session),
		cfg:      cfg,
		clock:    clk,
		random:   rnd,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Create allocates a fresh room id and starts a session in Waiting.
// players reserves slots; an empty entry goes to the first joiner.
func (r *Registry) Create(mode model.SessionMode, players [2]model.PlayerID) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.cfg.MaxSessions {
		r.logger.Warn("session limit reached", slog.Int("max_sessions", r.cfg.MaxSessions))
		return nil, model.ErrSessionLimit
	}

	id, err := r.newRoomID()
	if err != nil {
		return nil, err
	}

	seed := uint64(r.random.Intn(math.MaxInt32))
	sess, err := session.New(session.Params{
		ID:         id,
		Mode:       mode,
		Players:    players,
		OnFinished: r.remove,
	}, r.cfg.Session, r.clock, random.NewSeeded(seed), r.recorder, r.logger)
	if err != nil {
		return nil, err
	}

	r.sessions[id] = sess
	r.logger.Info("session registered",
		slog.String("room", string(id)),
		slog.String("mode", string(mode)),
		slog.Int("live_sessions", len(r.sessions)))
	return sess, nil
}

// newRoomID must be called with the lock held
func (r *Registry) newRoomID() (model.RoomID, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := model.RoomID(r.random.String(RoomIDLength, RoomIDAlphabet))
		if id == "" {
			continue
		}
		if _, exists := r.sessions[id]; !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not allocate room id after %d attempts", maxIDAttempts)
}

// Find returns a live session. A session that has finished but not yet
// been removed is reported as not found.
func (r *Registry) Find(id model.RoomID) (*session.Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	select {
	case <-sess.Done():
		return nil, model.ErrRoomNotFound
	default:
		return sess, nil
	}
}

// List returns every live session
func (r *Registry) List() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	return sessions
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Remove force-finishes a session and waits until it is gone
func (r *Registry) Remove(id model.RoomID) error {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return model.ErrRoomNotFound
	}
	sess.Close()
	<-sess.Done()
	r.remove(id)
	return nil
}

// remove is the session's finish callback
func (r *Registry) remove(id model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	r.logger.Info("session removed",
		slog.String("room", string(id)),
		slog.Int("live_sessions", len(r.sessions)))
}

// Sweep closes pre-game sessions that have been idle longer than the
// idle timeout and returns how many were closed
func (r *Registry) Sweep() int {
	now := r.clock.Now()
	closed := 0
	for _, sess := range r.List() {
		summary, err := sess.Snapshot()
		if err != nil {
			continue // Finished concurrently
		}
		if summary.State != model.SessionStateWaiting && summary.State != model.SessionStateCountdown {
			continue
		}
		if now.Sub(summary.LastActivity) < r.cfg.IdleTimeout {
			continue
		}
		r.logger.Info("closing idle session",
			slog.String("room", string(summary.RoomID)),
			slog.String("state", string(summary.State)),
			slog.Duration("idle", now.Sub(summary.LastActivity)))
		sess.Close()
		closed++
	}
	return closed
}

// Run sweeps periodically until ctx is cancelled
func (r *Registry) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	r.logger.Info("idle sweep started", slog.Duration("interval", r.cfg.SweepInterval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if n := r.Sweep(); n > 0 {
				r.logger.Info("idle sweep finished", slog.Int("closed", n))
			}
		}
	}
}

// Shutdown closes every live session
func (r *Registry) Shutdown() {
	sessions := r.List()
	for _, sess := range sessions {
		sess.Close()
	}
	for _, sess := range sessions {
		<-sess.Done()
	}
	r.logger.Info("registry shut down", slog.Int("closed", len(sessions)))
}
