package redis

import (
	"fmt"

	"github.com/mcoot/pongserver/internal/model"
)

// Key prefix for all server data
const keyPrefix = "pong"

// onlineKey returns the Redis key for the SET of online players
func onlineKey() string {
	return fmt.Sprintf("%s:online", keyPrefix)
}

// invitationKey returns the Redis key for the invitation from one player to another
func invitationKey(from, to model.PlayerID) string {
	return fmt.Sprintf("%s:invite:%s:%s", keyPrefix, from, to)
}

// invitationIndexKey returns the Redis key for the SET of invitation keys
func invitationIndexKey() string {
	return fmt.Sprintf("%s:idx:invites", keyPrefix)
}

// historyKey returns the Redis key for a player's result LIST, newest first
func historyKey(player model.PlayerID) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, player)
}
