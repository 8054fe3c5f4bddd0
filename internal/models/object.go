// internal/models/object.go
package models

// ResolvedObject is an on-chain object reduced to its id, type string and struct fields.
type ResolvedObject struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields"`
}

// GameView is the board state extracted from a game (or control) object.
type GameView struct {
	ID      string `json:"id"`
	Board   []any  `json:"board"`
	Turn    any    `json:"turn"`
	Players [2]any `json:"players"`
}

// RoomEventType names a lifecycle edge recorded in the event queue.
type RoomEventType string

const (
	RoomCreated   RoomEventType = "created"
	RoomActivated RoomEventType = "activated"
	RoomDeleted   RoomEventType = "deleted"
)
