package gateway

import (
	"log/slog"

	"github.com/mcoot/pongserver/internal/model"
	"github.com/mcoot/pongserver/internal/protocol"
	"github.com/mcoot/pongserver/internal/services/session"
)

// roomConn is the per-connection state of a /room connection. It is only
// touched by the connection's read goroutine.
type roomConn struct {
	gateway *Gateway
	conn    *Conn
	roomID  model.RoomID
	seat    *session.Seat
}

func (rc *roomConn) handle(msg protocol.Inbound) {
	switch m := msg.(type) {
	case protocol.Join:
		if rc.currentSeat() != nil {
			return
		}
		rc.bind()

	case protocol.MovePaddle:
		seat, err := rc.requireSeat()
		if err != nil {
			rc.gateway.sendError(rc.conn, err)
			return
		}
		if err := seat.Move(m.Paddle, m.Speed, m.IsDirection); err != nil {
			rc.gateway.sendError(rc.conn, err)
		}

	case protocol.StartGame:
		seat, err := rc.requireSeat()
		if err != nil {
			rc.gateway.sendError(rc.conn, err)
			return
		}
		if err := seat.Start(); err != nil {
			if isRoomGone(err) {
				rc.seat = nil
				err = model.ErrRoomNotFound
			}
			rc.gateway.sendError(rc.conn, err)
		}
	}
}

// bind finds the room and takes a slot, reporting failures as error frames
func (rc *roomConn) bind() {
	sess, err := rc.gateway.registry.Find(rc.roomID)
	if err != nil {
		rc.gateway.sendError(rc.conn, err)
		return
	}
	seat, err := sess.Bind(rc.conn)
	if err != nil {
		if isRoomGone(err) {
			err = model.ErrRoomNotFound
		}
		rc.conn.logger.Info("bind failed",
			slog.String("room", string(rc.roomID)),
			slog.String("error", err.Error()))
		rc.gateway.sendError(rc.conn, err)
		return
	}
	rc.seat = seat
}

// currentSeat returns the seat while its session is live
func (rc *roomConn) currentSeat() *session.Seat {
	if rc.seat == nil {
		return nil
	}
	select {
	case <-rc.seat.Session().Done():
		rc.seat = nil
	default:
	}
	return rc.seat
}

// requireSeat distinguishes a missing room from an unbound connection
func (rc *roomConn) requireSeat() (*session.Seat, error) {
	if seat := rc.currentSeat(); seat != nil {
		return seat, nil
	}
	if _, err := rc.gateway.registry.Find(rc.roomID); err != nil {
		return nil, err
	}
	return nil, model.ErrNotBound
}

// leave abandons the session if the connection is still seated
func (rc *roomConn) leave() {
	if seat := rc.currentSeat(); seat != nil {
		seat.Leave()
	}
}
