package protocol

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mcoot/pongserver/internal/model"
	"github.com/stretchr/testify/suite"
)

type ProtocolSuite struct {
	suite.Suite
}

func TestProtocolSuite(t *testing.T) {
	suite.Run(t, new(ProtocolSuite))
}

func (s *ProtocolSuite) TestDecodeInvite() {
	msg, err := Decode([]byte(`{"type":"invite","from":"alice","to":"bob"}`))
	s.Require().NoError(err)
	s.Equal(Invite{From: "alice", To: "bob"}, msg)
	s.Equal(TypeInvite, msg.FrameType())
}

func (s *ProtocolSuite) TestDecodeInviteRequiresRecipient() {
	_, err := Decode([]byte(`{"type":"invite","from":"alice"}`))
	s.ErrorIs(err, model.ErrMalformedFrame)
}

func (s *ProtocolSuite) TestDecodeAccept() {
	msg, err := Decode([]byte(`{"type":"accept_invite","from":"alice","to":"bob"}`))
	s.Require().NoError(err)
	s.Equal(AcceptInvite{From: "alice", To: "bob"}, msg)

	_, err = Decode([]byte(`{"type":"accept_invite","to":"bob"}`))
	s.ErrorIs(err, model.ErrMalformedFrame)
}

func (s *ProtocolSuite) TestDecodeCancelAndReject() {
	msg, err := Decode([]byte(`{"type":"cancel_invite","to":"bob"}`))
	s.Require().NoError(err)
	s.Equal(CancelInvite{To: "bob"}, msg)
	s.Equal(TypeCancelInvite, msg.FrameType())

	msg, err = Decode([]byte(`{"type":"reject_invite","from":"alice"}`))
	s.Require().NoError(err)
	s.Equal(CancelInvite{From: "alice", Reject: true}, msg)
	s.Equal(TypeRejectInvite, msg.FrameType())

	_, err = Decode([]byte(`{"type":"cancel_invite"}`))
	s.ErrorIs(err, model.ErrMalformedFrame)
}

func (s *ProtocolSuite) TestDecodeMovePaddle() {
	tests := []struct {
		name string
		in   string
		want MovePaddle
	}{
		{"speed", `{"type":"move_paddle","speed":-2.5}`, MovePaddle{Speed: -2.5}},
		{"numeric direction", `{"type":"move_paddle","direction":1}`, MovePaddle{Speed: 1, IsDirection: true}},
		{"large direction normalised", `{"type":"move_paddle","direction":-7}`, MovePaddle{Speed: -1, IsDirection: true}},
		{"string direction", `{"type":"move_paddle","direction":"up"}`, MovePaddle{Speed: -1, IsDirection: true}},
		{"stop", `{"type":"move_paddle","direction":"stop"}`, MovePaddle{Speed: 0, IsDirection: true}},
		{"speed wins over direction", `{"type":"move_paddle","speed":0.5,"direction":"down"}`, MovePaddle{Speed: 0.5}},
		{"legacy paddle key", `{"type":"paddle_input","paddle":"paddle_2","speed":1}`, MovePaddle{Paddle: model.SideRight, Speed: 1}},
		{"position ignored", `{"type":"move_paddle","direction":0,"position":33,"username":"x"}`, MovePaddle{IsDirection: true}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			msg, err := Decode([]byte(tt.in))
			s.Require().NoError(err)
			s.Equal(tt.want, msg)
		})
	}
}

func (s *ProtocolSuite) TestDecodeMalformed() {
	inputs := []string{
		``,
		`not json`,
		`[]`,
		`{}`,
		`{"type":""}`,
		`{"type":"teleport"}`,
		`{"type":"move_paddle"}`,
		`{"type":"move_paddle","speed":"fast"}`,
		`{"type":"move_paddle","direction":"sideways"}`,
		`{"type":"move_paddle","direction":true}`,
		`{"type":"move_paddle","paddle":"middle","speed":1}`,
		`{"type":"invite","to":42}`,
	}

	for i, in := range inputs {
		s.Run(fmt.Sprintf("case_%d", i), func() {
			msg, err := Decode([]byte(in))
			s.ErrorIs(err, model.ErrMalformedFrame)
			s.Nil(msg)
		})
	}
}

func (s *ProtocolSuite) TestDecodeStartAndJoin() {
	msg, err := Decode([]byte(`{"type":"start_game","room":"abc"}`))
	s.Require().NoError(err)
	s.Equal(StartGame{Room: "abc"}, msg)

	msg, err = Decode([]byte(`{"type":"join","username":"alice"}`))
	s.Require().NoError(err)
	s.Equal(Join{Username: "alice"}, msg)
}

func (s *ProtocolSuite) TestEncodeGameUpdate() {
	state := model.PhysicsState{
		Ball:        model.Vector2{X: 40, Y: 60},
		PaddleLeft:  50,
		PaddleRight: 20,
		ScoreLeft:   2,
		ScoreRight:  3,
	}

	data, err := Encode(NewGameUpdate(7, state))
	s.Require().NoError(err)

	var got map[string]any
	s.Require().NoError(json.Unmarshal(data, &got))
	s.Equal("game_update", got["type"])
	s.InDelta(40, got["ball_x"], 1e-9)
	s.InDelta(60, got["ball_y"], 1e-9)
	s.InDelta(2, got["score_left"], 1e-9)
	s.InDelta(2, got["score1"], 1e-9)
	s.InDelta(3, got["score2"], 1e-9)
	s.InDelta(7, got["tick"], 1e-9)
}

func (s *ProtocolSuite) TestEncodeUsersNeverNull() {
	data, err := Encode(NewUsers(nil))
	s.Require().NoError(err)
	s.JSONEq(`{"type":"users","users":[]}`, string(data))
}

func (s *ProtocolSuite) TestEncodeUpdatePaddle() {
	data, err := Encode(NewUpdatePaddle(model.SideRight, 42))
	s.Require().NoError(err)
	s.JSONEq(`{"type":"update_paddle","paddle":"right","paddle_key":"paddle_2","position":42}`, string(data))
}

func (s *ProtocolSuite) TestEncodeStartGame() {
	inv := &model.Invitation{From: "alice", To: "bob"}
	data, err := Encode(NewStartGame(inv, "room1"))
	s.Require().NoError(err)
	s.JSONEq(`{"type":"start_game","game_data":{"from":"alice","to":"bob","room":"room1","player_1":"alice","player_2":"bob"}}`, string(data))
}

func (s *ProtocolSuite) TestErrorCodes() {
	tests := []struct {
		err  error
		code string
	}{
		{model.ErrAuthRejected, CodeAuthRejected},
		{fmt.Errorf("%w: bad", model.ErrMalformedFrame), CodeMalformedFrame},
		{model.ErrRoomNotFound, CodeRoomNotFound},
		{model.ErrSessionFinished, CodeRoomNotFound},
		{model.ErrSlotUnavailable, CodeSlotUnavailable},
		{model.ErrAlreadyPending, CodeAlreadyPending},
		{model.ErrRecipientOffline, CodeRecipientOffline},
		{ErrRateLimited, CodeRateLimited},
		{fmt.Errorf("boom"), CodeInternalError},
	}

	for _, tt := range tests {
		frame := NewError(tt.err)
		s.Equal(TypeError, frame.Type)
		s.Equal(tt.code, frame.Code, tt.err.Error())
	}
}
