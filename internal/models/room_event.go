// internal/models/room_event.go
package models

import "github.com/google/uuid"

// RoomEvent holds the minimal info needed by the historian to persist a room transition.
type RoomEvent struct {
	ID      uuid.UUID     `json:"id"`
	Type    RoomEventType `json:"type"`
	Network Network       `json:"network"`
	RoomID  string        `json:"room_id"`
	Actor   string        `json:"actor,omitempty"`
	GameID  string        `json:"game_id,omitempty"`
	At      int64         `json:"at"` // unix millis
}
