package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/protocol"
	"github.com/mcoot/pongserver/internal/services/auth"
	"github.com/mcoot/pongserver/internal/services/invite"
	"github.com/mcoot/pongserver/internal/services/presence"
	"github.com/mcoot/pongserver/internal/services/registry"
)

// TokenValidator turns a bearer token into a player identity
type TokenValidator interface {
	Validate(token string) (model.PlayerID, error)
}

// Config holds per-connection limits
type Config struct {
	InputRate  float64 // Frames per second accepted from one connection
	InputBurst int
	SendBuffer int // Outbound frames queued per connection before it is dropped
}

// DefaultConfig allows a little more than one input per tick
func DefaultConfig() Config {
	return Config{
		InputRate:  120,
		InputBurst: 30,
		SendBuffer: 256,
	}
}

// Gateway accepts websocket connections for rooms and presence, decodes
// their frames and routes them
type Gateway struct {
	cfg      Config
	tokens   TokenValidator
	registry *registry.Registry
	presence *presence.Directory
	invites  *invite.Coordinator
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// New creates a Gateway
func New(
	cfg Config,
	tokens TokenValidator,
	registry *registry.Registry,
	presence *presence.Directory,
	invites *invite.Coordinator,
	logger *slog.Logger,
) *Gateway {
	d := DefaultConfig()
	if cfg.InputRate <= 0 {
		cfg.InputRate = d.InputRate
	}
	if cfg.InputBurst <= 0 {
		cfg.InputBurst = d.InputBurst
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = d.SendBuffer
	}
	return &Gateway{
		cfg:      cfg,
		tokens:   tokens,
		registry: registry,
		presence: presence,
		invites:  invites,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from other origins; the bearer token is the gate
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "gateway")),
		conns:  make(map[*Conn]struct{}),
	}
}

// RegisterRoutes mounts the websocket endpoints
func (g *Gateway) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/room/{room_id}", g.ServeRoom).Methods(http.MethodGet)
	r.HandleFunc("/presence", g.ServePresence).Methods(http.MethodGet)
}

// ConnectionCount returns the number of open connections
func (g *Gateway) ConnectionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

// Shutdown closes every open connection with a going-away status
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	conns := make([]*Conn, 0, len(g.conns))
	for c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.Unlock()

	for _, c := range conns {
		c.CloseWith(websocket.CloseGoingAway, "server shutting down")
	}
	g.logger.Info("gateway shut down", slog.Int("closed_connections", len(conns)))
}

// tokenFrom reads the bearer token from the Authorization header, then the
// token query parameter browsers use
func tokenFrom(r *http.Request) string {
	if token, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

// accept authenticates and upgrades. A rejected player still gets a
// websocket so it can be closed with a policy violation status.
func (g *Gateway) accept(w http.ResponseWriter, r *http.Request) (*Conn, bool) {
	player, authErr := g.tokens.Validate(tokenFrom(r))

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return nil, false
	}

	if authErr != nil {
		g.logger.Warn("connection rejected",
			slog.String("path", r.URL.Path),
			slog.String("error", authErr.Error()))
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication rejected"))
		_ = ws.Close()
		return nil, false
	}

	limiter := rate.NewLimiter(rate.Limit(g.cfg.InputRate), g.cfg.InputBurst)
	c := newConn(ws, player, limiter, g.cfg.SendBuffer, g.logger)

	g.mu.Lock()
	g.conns[c] = struct{}{}
	g.mu.Unlock()

	go c.writePump()
	c.logger.Info("connection opened", slog.String("path", r.URL.Path))
	return c, true
}

func (g *Gateway) release(c *Conn) {
	c.Close()
	g.mu.Lock()
	delete(g.conns, c)
	g.mu.Unlock()
	c.logger.Info("connection closed")
}

// ServePresence handles /presence
func (g *Gateway) ServePresence(w http.ResponseWriter, r *http.Request) {
	c, ok := g.accept(w, r)
	if !ok {
		return
	}
	defer g.release(c)

	ctx := context.Background()
	g.presence.Add(ctx, c)
	defer func() {
		if g.presence.Remove(ctx, c) {
			if err := g.invites.PlayerOffline(ctx, c.Player()); err != nil {
				c.logger.Error("failed to drop invitations", slog.String("error", err.Error()))
			}
		}
	}()

	// Until the next flush, the new connection still needs the list
	g.sendFrame(c, protocol.NewUsers(g.presence.List()))

	c.readPump(func(data []byte) {
		msg, ok := g.decode(c, data)
		if !ok {
			return
		}
		if g.handleInvitation(ctx, c, msg) {
			return
		}
		g.sendError(c, model.ErrNotBound)
	})
}

// ServeRoom handles /room/{room_id}. The connection is bound to a free
// slot on connect; join retries the bind.
func (g *Gateway) ServeRoom(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["room_id"])

	c, ok := g.accept(w, r)
	if !ok {
		return
	}
	defer g.release(c)

	ctx := context.Background()
	rc := &roomConn{gateway: g, conn: c, roomID: roomID}
	rc.bind()
	defer rc.leave()

	c.readPump(func(data []byte) {
		msg, ok := g.decode(c, data)
		if !ok {
			return
		}
		if g.handleInvitation(ctx, c, msg) {
			return
		}
		rc.handle(msg)
	})
}

// decode applies the rate limit and parses one frame. Malformed frames are
// logged and dropped. Only called from the read goroutine.
func (g *Gateway) decode(c *Conn, data []byte) (protocol.Inbound, bool) {
	if !c.limiter.Allow() {
		// One notice per burst of dropped frames
		if !c.throttled {
			c.throttled = true
			c.logger.Warn("input rate exceeded, dropping frames")
			g.sendError(c, protocol.ErrRateLimited)
		}
		return nil, false
	}
	c.throttled = false
	msg, err := protocol.Decode(data)
	if err != nil {
		c.logger.Warn("dropping malformed frame", slog.String("error", err.Error()))
		return nil, false
	}
	return msg, true
}

// handleInvitation routes invitation frames and reports whether msg was one
func (g *Gateway) handleInvitation(ctx context.Context, c *Conn, msg protocol.Inbound) bool {
	player := c.Player()

	var err error
	switch m := msg.(type) {
	case protocol.Invite:
		_, err = g.invites.Invite(ctx, player, m.To)
	case protocol.AcceptInvite:
		_, err = g.invites.Accept(ctx, m.From, player)
	case protocol.CancelInvite:
		from, to := m.From, m.To
		if from == "" {
			from = player
		}
		if to == "" {
			to = player
		}
		err = g.invites.Cancel(ctx, player, from, to)
	default:
		return false
	}

	if err != nil {
		c.logger.Info("invitation request failed",
			slog.String("type", msg.FrameType()),
			slog.String("error", err.Error()))
		g.sendError(c, err)
	}
	return true
}

func (g *Gateway) sendError(c *Conn, err error) {
	g.sendFrame(c, protocol.NewError(err))
}

func (g *Gateway) sendFrame(c *Conn, frame any) {
	data, err := protocol.Encode(frame)
	if err != nil {
		c.logger.Error("failed to encode frame", slog.String("error", err.Error()))
		return
	}
	if !c.Send(data) {
		c.logger.Warn("frame dropped - connection buffer full")
	}
}

// isRoomGone reports errors that mean the room no longer accepts frames
func isRoomGone(err error) bool {
	return errors.Is(err, model.ErrRoomNotFound) || errors.Is(err, model.ErrSessionFinished)
}
