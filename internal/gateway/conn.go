package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/pongserver/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// Conn is one authenticated websocket. Frames queued with Send are written
// in order by a single writer goroutine.
type Conn struct {
	id      string
	player  model.PlayerID
	ws      *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	logger  *slog.Logger

	// Owned by the read goroutine
	throttled bool

	closeOnce   sync.Once
	closed      chan struct{}
	closeCode   int
	closeReason string
}

func newConn(ws *websocket.Conn, player model.PlayerID, limiter *rate.Limiter, sendBuffer int, logger *slog.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:        id,
		player:    player,
		ws:        ws,
		send:      make(chan []byte, sendBuffer),
		limiter:   limiter,
		logger:    logger.With(slog.String("conn_id", id), slog.String("player_id", string(player))),
		closed:    make(chan struct{}),
		closeCode: websocket.CloseNormalClosure,
	}
}

// ID returns the connection id
func (c *Conn) ID() string {
	return c.id
}

// Player returns the authenticated player
func (c *Conn) Player() model.PlayerID {
	return c.player
}

// Send queues a frame without blocking. It reports false if the connection
// is closed. A peer whose buffer is full is closed with CloseTryAgainLater.
func (c *Conn) Send(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn("send buffer full, closing connection", slog.Int("buffered", len(c.send)))
		c.CloseWith(websocket.CloseTryAgainLater, "send buffer full")
		return false
	}
}

// Close flushes queued frames and closes the socket normally
func (c *Conn) Close() {
	c.CloseWith(websocket.CloseNormalClosure, "")
}

// CloseWith flushes queued frames and closes the socket with a status code
func (c *Conn) CloseWith(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.closed)
	})
}

// Done is closed once Close has been called
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// writePump is the only goroutine writing to the socket
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				c.logger.Debug("write failed", slog.String("error", err.Error()))
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.closed:
			// Deliver what was already queued, e.g. game_over. A peer that
			// overflowed only gets the close.
			if c.closeCode != websocket.CloseTryAgainLater {
			drain:
				for {
					select {
					case message := <-c.send:
						if err := c.write(websocket.TextMessage, message); err != nil {
							return
						}
					default:
						break drain
					}
				}
			}
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, c.closeReason))
			return
		}
	}
}

func (c *Conn) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(messageType, data)
}

// readPump delivers text frames to handle until the socket fails or closes
func (c *Conn) readPump(handle func(data []byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("connection closed unexpectedly", slog.String("error", err.Error()))
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logger.Warn("dropping non-text frame", slog.Int("message_type", messageType))
			continue
		}
		handle(data)
	}
}
