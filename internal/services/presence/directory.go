package presence

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mcoot/pongserver/internal/dependencies/clock"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/protocol"
	"github.com/mcoot/pongserver/internal/storage"
)

const storageTimeout = 2 * time.Second

// Conn is a player's presence connection. Send must not block.
type Conn interface {
	ID() string
	Player() model.PlayerID
	Send(frame []byte) bool
	Close()
}

// Config holds presence settings
type Config struct {
	FlushInterval time.Duration // Membership changes within one interval share a broadcast
}

// DefaultConfig returns default presence settings
func DefaultConfig() Config {
	return Config{FlushInterval: 250 * time.Millisecond}
}

// Directory tracks which players hold a presence connection. Membership
// is mirrored to storage so other processes can list online players.
type Directory struct {
	mu      sync.RWMutex
	entries map[model.PlayerID]Conn
	dirty   bool

	cfg     Config
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates an empty directory
func New(cfg Config, storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Directory {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	return &Directory{
		entries: make(map[model.PlayerID]Conn),
		cfg:     cfg,
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "presence")),
	}
}

// Add registers conn for its player. An existing connection for the same
// player is replaced and closed.
func (d *Directory) Add(ctx context.Context, conn Conn) {
	player := conn.Player()

	d.mu.Lock()
	replaced := d.entries[player]
	d.entries[player] = conn
	d.dirty = true
	count := len(d.entries)
	d.mu.Unlock()

	if replaced != nil && replaced.ID() != conn.ID() {
		d.logger.Info("presence connection replaced",
			slog.String("player_id", string(player)),
			slog.String("old_conn_id", replaced.ID()),
			slog.String("conn_id", conn.ID()))
		replaced.Close()
	}

	d.mirror(ctx, player, true)
	d.logger.Info("player online",
		slog.String("player_id", string(player)),
		slog.String("conn_id", conn.ID()),
		slog.Int("online", count))
}

// Remove unregisters conn. It reports false when conn had already been
// replaced by a newer connection, in which case the player stays online.
func (d *Directory) Remove(ctx context.Context, conn Conn) bool {
	player := conn.Player()

	d.mu.Lock()
	current, ok := d.entries[player]
	if !ok || current.ID() != conn.ID() {
		d.mu.Unlock()
		return false
	}
	delete(d.entries, player)
	d.dirty = true
	count := len(d.entries)
	d.mu.Unlock()

	d.mirror(ctx, player, false)
	d.logger.Info("player offline",
		slog.String("player_id", string(player)),
		slog.String("conn_id", conn.ID()),
		slog.Int("online", count))
	return true
}

func (d *Directory) mirror(ctx context.Context, player model.PlayerID, online bool) {
	ctx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()

	var err error
	if online {
		err = d.storage.AddOnlinePlayer(ctx, player)
	} else {
		err = d.storage.RemoveOnlinePlayer(ctx, player)
	}
	if err != nil {
		d.logger.Warn("failed to mirror presence",
			slog.String("player_id", string(player)),
			slog.Bool("online", online),
			slog.String("error", err.Error()))
	}
}

// List returns online players in sorted order
func (d *Directory) List() []model.PlayerID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	players := make([]model.PlayerID, 0, len(d.entries))
	for p := range d.entries {
		players = append(players, p)
	}
	slices.Sort(players)
	return players
}

// IsOnline reports whether player holds a presence connection
func (d *Directory) IsOnline(player model.PlayerID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[player]
	return ok
}

// SendTo delivers a frame to a player's presence connection. It reports
// false if the player is offline or the frame was dropped.
func (d *Directory) SendTo(player model.PlayerID, frame []byte) bool {
	d.mu.RLock()
	conn, ok := d.entries[player]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	return conn.Send(frame)
}

// Flush broadcasts the online list if membership changed since the last
// flush. It reports whether a broadcast went out.
func (d *Directory) Flush() bool {
	d.mu.Lock()
	if !d.dirty {
		d.mu.Unlock()
		return false
	}
	d.dirty = false
	conns := make([]Conn, 0, len(d.entries))
	players := make([]model.PlayerID, 0, len(d.entries))
	for p, c := range d.entries {
		conns = append(conns, c)
		players = append(players, p)
	}
	d.mu.Unlock()

	slices.Sort(players)
	data, err := protocol.Encode(protocol.NewUsers(players))
	if err != nil {
		d.logger.Error("failed to encode users frame", slog.String("error", err.Error()))
		return false
	}

	dropped := 0
	for _, c := range conns {
		if !c.Send(data) {
			dropped++
		}
	}
	if dropped > 0 {
		d.logger.Warn("presence broadcast partial failure",
			slog.Int("sent", len(conns)-dropped),
			slog.Int("dropped", dropped))
	}
	return true
}

// Run flushes membership changes every interval until ctx is cancelled
func (d *Directory) Run(ctx context.Context) {
	ticker := d.clock.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	d.logger.Info("presence broadcaster started", slog.Duration("interval", d.cfg.FlushInterval))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("presence broadcaster stopped")
			return
		case <-ticker.C():
			d.Flush()
		}
	}
}
