package protocol

import (
	"errors"

	"github.com/mcoot/pongserver/internal/model"
)

// Error codes carried by error frames
const (
	CodeAuthRejected       = "AUTH_REJECTED"
	CodeMalformedFrame     = "MALFORMED_FRAME"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeSlotUnavailable    = "SLOT_UNAVAILABLE"
	CodeAlreadyPending     = "ALREADY_PENDING"
	CodeRecipientOffline   = "RECIPIENT_OFFLINE"
	CodeInvitationNotFound = "INVITATION_NOT_FOUND"
	CodeSelfInvite         = "SELF_INVITE"
	CodeNotInvitationParty = "NOT_INVITATION_PARTY"
	CodeNotReady           = "NOT_READY"
	CodeNotBound           = "NOT_BOUND"
	CodeInvalidSide        = "INVALID_SIDE"
	CodeSessionLimit       = "SESSION_LIMIT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// ErrRateLimited is reported when a connection sends frames too quickly
var ErrRateLimited = errors.New("too many frames")

// ErrorFrame tells one connection that its last request failed
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError maps an error to an error frame
func NewError(err error) ErrorFrame {
	return ErrorFrame{Type: TypeError, Code: codeFor(err), Message: err.Error()}
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, model.ErrAuthRejected):
		return CodeAuthRejected
	case errors.Is(err, model.ErrMalformedFrame):
		return CodeMalformedFrame
	case errors.Is(err, model.ErrRoomNotFound), errors.Is(err, model.ErrSessionFinished):
		return CodeRoomNotFound
	case errors.Is(err, model.ErrSlotUnavailable):
		return CodeSlotUnavailable
	case errors.Is(err, model.ErrAlreadyPending):
		return CodeAlreadyPending
	case errors.Is(err, model.ErrRecipientOffline):
		return CodeRecipientOffline
	case errors.Is(err, model.ErrInvitationNotFound):
		return CodeInvitationNotFound
	case errors.Is(err, model.ErrSelfInvite):
		return CodeSelfInvite
	case errors.Is(err, model.ErrNotInvitationParty):
		return CodeNotInvitationParty
	case errors.Is(err, model.ErrNotReady):
		return CodeNotReady
	case errors.Is(err, model.ErrNotBound):
		return CodeNotBound
	case errors.Is(err, model.ErrInvalidSide):
		return CodeInvalidSide
	case errors.Is(err, model.ErrSessionLimit):
		return CodeSessionLimit
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternalError
	}
}
