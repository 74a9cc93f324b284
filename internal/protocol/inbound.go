package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcoot/pongserver/internal/model"
)

// Inbound frame types
const (
	TypeInvite       = "invite"
	TypeAcceptInvite = "accept_invite"
	TypeCancelInvite = "cancel_invite"
	TypeRejectInvite = "reject_invite"
	TypeMovePaddle   = "move_paddle"
	TypePaddleInput  = "paddle_input"
	TypeStartGame    = "start_game"
	TypeJoin         = "join"
)

// Inbound is a decoded client frame
type Inbound interface {
	FrameType() string
}

// Invite asks To to play. From is advisory; the gateway uses the
// connection's identity.
type Invite struct {
	From model.PlayerID
	To   model.PlayerID
}

// AcceptInvite accepts the pending invitation From sent to To
type AcceptInvite struct {
	From model.PlayerID
	To   model.PlayerID
}

// CancelInvite withdraws (sent by From) or rejects (sent by To) an invitation
type CancelInvite struct {
	From   model.PlayerID
	To     model.PlayerID
	Reject bool
}

// MovePaddle sets the input level for a paddle. When IsDirection is set,
// Speed is -1, 0 or 1 and is scaled by the maximum paddle speed.
// Paddle is empty when the connection's own slot is meant.
type MovePaddle struct {
	Paddle      model.Side
	Speed       float64
	IsDirection bool
}

// StartGame requests the Countdown to Playing transition
type StartGame struct {
	Room model.RoomID
}

// Join requests a slot in the connection's room
type Join struct {
	Username string
}

func (Invite) FrameType() string       { return TypeInvite }
func (AcceptInvite) FrameType() string { return TypeAcceptInvite }
func (m CancelInvite) FrameType() string {
	if m.Reject {
		return TypeRejectInvite
	}
	return TypeCancelInvite
}
func (MovePaddle) FrameType() string { return TypeMovePaddle }
func (StartGame) FrameType() string  { return TypeStartGame }
func (Join) FrameType() string       { return TypeJoin }

type envelope struct {
	Type string `json:"type"`
}

type invitePayload struct {
	From model.PlayerID `json:"from"`
	To   model.PlayerID `json:"to"`
}

type movePayload struct {
	Paddle    *string          `json:"paddle"`
	Speed     *float64         `json:"speed"`
	Direction *json.RawMessage `json:"direction"`
	// Position and username are accepted from older clients but ignored
	Position *float64 `json:"position"`
	Username string   `json:"username"`
}

type startPayload struct {
	Room model.RoomID `json:"room"`
}

type joinPayload struct {
	Username string `json:"username"`
}

// Decode parses one text frame. Every failure wraps model.ErrMalformedFrame.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed("invalid json: %v", err)
	}
	if env.Type == "" {
		return nil, malformed("missing type")
	}

	switch env.Type {
	case TypeInvite:
		p, err := decodeInvite(data)
		if err != nil {
			return nil, err
		}
		if p.To == "" {
			return nil, malformed("invite requires to")
		}
		return Invite(p), nil

	case TypeAcceptInvite:
		p, err := decodeInvite(data)
		if err != nil {
			return nil, err
		}
		if p.From == "" {
			return nil, malformed("accept_invite requires from")
		}
		return AcceptInvite(p), nil

	case TypeCancelInvite, TypeRejectInvite:
		p, err := decodeInvite(data)
		if err != nil {
			return nil, err
		}
		if p.From == "" && p.To == "" {
			return nil, malformed("%s requires from or to", env.Type)
		}
		return CancelInvite{From: p.From, To: p.To, Reject: env.Type == TypeRejectInvite}, nil

	case TypeMovePaddle, TypePaddleInput:
		return decodeMove(data)

	case TypeStartGame:
		var p startPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, malformed("start_game: %v", err)
		}
		return StartGame(p), nil

	case TypeJoin:
		var p joinPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, malformed("join: %v", err)
		}
		return Join(p), nil

	default:
		return nil, malformed("unknown type %q", env.Type)
	}
}

func decodeInvite(data []byte) (invitePayload, error) {
	var p invitePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return p, malformed("invitation: %v", err)
	}
	return p, nil
}

func decodeMove(data []byte) (Inbound, error) {
	var p movePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, malformed("paddle input: %v", err)
	}

	msg := MovePaddle{}
	if p.Paddle != nil && *p.Paddle != "" {
		side, err := model.ParseSide(*p.Paddle)
		if err != nil {
			return nil, malformed("unknown paddle %q", *p.Paddle)
		}
		msg.Paddle = side
	}

	switch {
	case p.Speed != nil:
		msg.Speed = *p.Speed
	case p.Direction != nil:
		dir, err := parseDirection(*p.Direction)
		if err != nil {
			return nil, err
		}
		msg.Speed = dir
		msg.IsDirection = true
	default:
		return nil, malformed("paddle input requires speed or direction")
	}
	return msg, nil
}

// parseDirection accepts -1/0/1 or up/down/stop
func parseDirection(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch {
		case n < 0:
			return -1, nil
		case n > 0:
			return 1, nil
		default:
			return 0, nil
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, malformed("direction must be a number or string")
	}
	switch strings.ToLower(s) {
	case "up":
		return -1, nil
	case "down":
		return 1, nil
	case "stop", "none", "":
		return 0, nil
	default:
		return 0, malformed("unknown direction %q", s)
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrMalformedFrame, fmt.Sprintf(format, args...))
}
