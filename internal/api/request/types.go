package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Mode string `json:"mode"`
	// Opponent reserves the right slot of a two_player room. Empty leaves it open.
	Opponent string `json:"opponent,omitempty"`
}
