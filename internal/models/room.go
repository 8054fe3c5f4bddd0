// internal/models/room.go
package models

// Network names a chain deployment that rooms are scoped to.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Valid reports whether n is one of the supported networks.
func (n Network) Valid() bool {
	return n == Mainnet || n == Testnet
}

// RoomStatus is the lifecycle state of a room: waiting -> active -> closed.
type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusActive  RoomStatus = "active"
	StatusClosed  RoomStatus = "closed"
)

// Rank orders statuses along the forward-only lifecycle. Unknown statuses rank -1.
func (s RoomStatus) Rank() int {
	switch s {
	case StatusWaiting:
		return 0
	case StatusActive:
		return 1
	case StatusClosed:
		return 2
	}
	return -1
}

// Room is a staked match tracked by the service. JSON names match the browser registry format.
type Room struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StakeMist string     `json:"stakeMist"` // u64 as string to avoid precision loss
	Creator   string     `json:"creator"`
	Network   Network    `json:"network"`
	Status    RoomStatus `json:"status"`
	CreatedAt int64      `json:"createdAt"` // unix millis

	TxDigest  string `json:"txDigest,omitempty"`
	ControlID string `json:"controlId,omitempty"`
	GameID    string `json:"gameId,omitempty"`
}
