package session

import "github.com/mcoot/pongserver/internal/model"

// Seat is a connection's handle on the slots it controls
type Seat struct {
	session *Session
	peer    Peer
	sides   []model.Side
}

// Session returns the session the seat belongs to
func (st *Seat) Session() *Session {
	return st.session
}

// Side returns the seat's primary slot
func (st *Seat) Side() model.Side {
	return st.sides[0]
}

// Sides returns every slot the seat controls
func (st *Seat) Sides() []model.Side {
	return st.sides
}

// Move sets the input level for side, or the primary slot when side is
// empty. Direction inputs are scaled to the maximum paddle speed. The level
// holds until replaced.
func (st *Seat) Move(side model.Side, speed float64, isDirection bool) error {
	if side == "" {
		side = st.sides[0]
	}
	if !st.controls(side) {
		return model.ErrInvalidSide
	}
	if isDirection {
		speed *= st.session.engine.Config().MaxPaddleSpeed
	}
	st.session.setInput(side, speed)
	return nil
}

// Start requests the transition to Playing
func (st *Seat) Start() error {
	var startErr error
	err := st.session.exec(func() {
		startErr = st.session.start(st.peer)
	})
	if err != nil {
		return err
	}
	return startErr
}

// Leave releases the seat. Leaving a live session abandons it.
func (st *Seat) Leave() {
	_ = st.session.exec(func() {
		st.session.unbind(st.peer)
	})
}

func (st *Seat) controls(side model.Side) bool {
	for _, s := range st.sides {
		if s == side {
			return true
		}
	}
	return false
}
