package model

import "errors"

// Common errors used across the application
var (
	// Connection errors
	ErrAuthRejected   = errors.New("authentication rejected")
	ErrMalformedFrame = errors.New("malformed frame")

	// Session errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrSessionFinished = errors.New("session is finished")
	ErrNotReady        = errors.New("session is not ready to start")
	ErrNotBound        = errors.New("connection is not bound to a slot")
	ErrInvalidMode     = errors.New("invalid session mode")
	ErrSessionLimit    = errors.New("session limit reached")
	ErrInvalidSide     = errors.New("invalid paddle side")

	// Invitation errors
	ErrAlreadyPending     = errors.New("invitation already pending")
	ErrRecipientOffline   = errors.New("recipient is offline")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrSelfInvite         = errors.New("cannot invite yourself")
	ErrNotInvitationParty = errors.New("player is not a party to the invitation")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
)
