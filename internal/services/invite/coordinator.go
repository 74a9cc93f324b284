package invite

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/pongserver/internal/dependencies/clock"
	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/protocol"
	"github.com/mcoot/pongserver/internal/services/session"
	"github.com/mcoot/pongserver/internal/storage"
)

// Reasons carried by cancel_invite frames
const (
	ReasonCancelled = "cancelled"
	ReasonRejected  = "rejected"
	ReasonExpired   = "expired"
	ReasonOffline   = "offline"
)

// Notifier delivers frames to online players
type Notifier interface {
	IsOnline(player model.PlayerID) bool
	SendTo(player model.PlayerID, frame []byte) bool
}

// SessionCreator forms the room for an accepted invitation
type SessionCreator interface {
	Create(mode model.SessionMode, players [2]model.PlayerID) (*session.Session, error)
}

// Config holds invitation settings
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// DefaultConfig returns default invitation settings
func DefaultConfig() Config {
	return Config{
		TTL:           30 * time.Second,
		SweepInterval: time.Second,
	}
}

// Coordinator manages pending invitations. Every operation runs under one
// lock so an invitation makes exactly one transition.
type Coordinator struct {
	mu sync.Mutex

	cfg      Config
	storage  storage.Storage
	notifier Notifier
	sessions SessionCreator
	clock    clock.Clock
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator
func NewCoordinator(
	cfg Config,
	storage storage.Storage,
	notifier Notifier,
	sessions SessionCreator,
	clock clock.Clock,
	logger *slog.Logger,
) *Coordinator {
	d := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = d.TTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = d.SweepInterval
	}
	return &Coordinator{
		cfg:      cfg,
		storage:  storage,
		notifier: notifier,
		sessions: sessions,
		clock:    clock,
		logger:   logger.With(slog.String("component", "invite")),
	}
}

// Invite creates a pending invitation and delivers it to the recipient.
// An expired invitation for the same pair is replaced.
func (c *Coordinator) Invite(ctx context.Context, from, to model.PlayerID) (*model.Invitation, error) {
	if from == to {
		return nil, model.ErrSelfInvite
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	existing, err := c.storage.GetInvitation(ctx, from, to)
	switch {
	case err == nil && existing.Status == model.InvitationPending && !existing.Expired(now):
		return nil, model.ErrAlreadyPending
	case err != nil && !errors.Is(err, model.ErrInvitationNotFound):
		return nil, err
	}

	if !c.notifier.IsOnline(to) {
		return nil, model.ErrRecipientOffline
	}

	inv := &model.Invitation{
		From:      from,
		To:        to,
		Status:    model.InvitationPending,
		CreatedAt: now,
		ExpiresAt: now.Add(c.cfg.TTL),
	}
	if err := c.storage.SaveInvitation(ctx, inv); err != nil {
		return nil, err
	}

	if !c.send(to, protocol.NewInvite(inv)) {
		_ = c.storage.DeleteInvitation(ctx, from, to)
		return nil, model.ErrRecipientOffline
	}

	c.logger.Info("invitation sent",
		slog.String("from", string(from)),
		slog.String("to", string(to)))
	return inv, nil
}

// Accept is called by the recipient. It creates a two_player session with
// the inviter on the left and tells both players the room id.
func (c *Coordinator) Accept(ctx context.Context, from, to model.PlayerID) (model.RoomID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inv, err := c.pending(ctx, from, to)
	if err != nil {
		return "", err
	}

	sess, err := c.sessions.Create(model.ModeTwoPlayer, [2]model.PlayerID{from, to})
	if err != nil {
		return "", err
	}

	if err := c.storage.DeleteInvitation(ctx, from, to); err != nil {
		c.logger.Warn("failed to delete accepted invitation", slog.String("error", err.Error()))
	}
	inv.Status = model.InvitationAccepted

	frame := protocol.NewStartGame(inv, sess.ID())
	c.send(from, frame)
	c.send(to, frame)

	c.logger.Info("invitation accepted",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("room", string(sess.ID())))
	return sess.ID(), nil
}

// Cancel withdraws (actor is the sender) or rejects (actor is the
// recipient) an invitation and tells the other party
func (c *Coordinator) Cancel(ctx context.Context, actor, from, to model.PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inv, err := c.pending(ctx, from, to)
	if err != nil {
		return err
	}
	if !inv.Involves(actor) {
		return model.ErrNotInvitationParty
	}

	reason := ReasonCancelled
	if actor == inv.To {
		reason = ReasonRejected
	}
	return c.drop(ctx, inv, reason, inv.Counterpart(actor))
}

// pending loads a live invitation, deleting it if it has expired
func (c *Coordinator) pending(ctx context.Context, from, to model.PlayerID) (*model.Invitation, error) {
	inv, err := c.storage.GetInvitation(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, model.ErrInvitationNotFound
	}
	if inv.Expired(c.clock.Now()) {
		if err := c.drop(ctx, inv, ReasonExpired, inv.From, inv.To); err != nil {
			return nil, err
		}
		return nil, model.ErrInvitationNotFound
	}
	return inv, nil
}

// drop deletes an invitation and notifies the given players
func (c *Coordinator) drop(ctx context.Context, inv *model.Invitation, reason string, notify ...model.PlayerID) error {
	if err := c.storage.DeleteInvitation(ctx, inv.From, inv.To); err != nil {
		return err
	}
	if reason == ReasonExpired {
		inv.Status = model.InvitationExpired
	} else {
		inv.Status = model.InvitationCancelled
	}

	frame := protocol.NewCancelInvite(inv, reason)
	for _, p := range notify {
		c.send(p, frame)
	}
	c.logger.Info("invitation dropped",
		slog.String("from", string(inv.From)),
		slog.String("to", string(inv.To)),
		slog.String("reason", reason))
	return nil
}

// ExpireStale drops every invitation past its deadline and returns how
// many were dropped
func (c *Coordinator) ExpireStale(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	invitations, err := c.storage.ListInvitations(ctx)
	if err != nil {
		return 0, err
	}

	now := c.clock.Now()
	expired := 0
	for _, inv := range invitations {
		if !inv.Expired(now) {
			continue
		}
		if err := c.drop(ctx, inv, ReasonExpired, inv.From, inv.To); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// PlayerOffline drops every invitation involving player and tells the
// other party
func (c *Coordinator) PlayerOffline(ctx context.Context, player model.PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	invitations, err := c.storage.ListInvitations(ctx)
	if err != nil {
		return err
	}
	for _, inv := range invitations {
		if !inv.Involves(player) {
			continue
		}
		if err := c.drop(ctx, inv, ReasonOffline, inv.Counterpart(player)); err != nil {
			return err
		}
	}
	return nil
}

// Pending lists invitations that are still open
func (c *Coordinator) Pending(ctx context.Context) ([]*model.Invitation, error) {
	invitations, err := c.storage.ListInvitations(ctx)
	if err != nil {
		return nil, err
	}
	now := c.clock.Now()
	open := invitations[:0]
	for _, inv := range invitations {
		if inv.Status == model.InvitationPending && !inv.Expired(now) {
			open = append(open, inv)
		}
	}
	return open, nil
}

// Run expires stale invitations every sweep interval until ctx is cancelled
func (c *Coordinator) Run(ctx context.Context) {
	ticker := c.clock.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			n, err := c.ExpireStale(ctx)
			if err != nil {
				c.logger.Error("invitation sweep failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				c.logger.Info("invitations expired", slog.Int("count", n))
			}
		}
	}
}

func (c *Coordinator) send(player model.PlayerID, frame any) bool {
	data, err := protocol.Encode(frame)
	if err != nil {
		c.logger.Error("failed to encode frame", slog.String("error", err.Error()))
		return false
	}
	return c.notifier.SendTo(player, data)
}
