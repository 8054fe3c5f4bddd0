package room

import "errors"

var (
	// ErrRoomNotFound means no room with the requested id exists on the network.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotCreator means someone other than the creator tried to delete a room.
	ErrNotCreator = errors.New("only the room creator can delete this room")
	// ErrInvalidStake means the stake is not a positive SUI amount.
	ErrInvalidStake = errors.New("enter a valid SUI amount (> 0)")
	// ErrStakeTooLow means a join stake is below the room's stake.
	ErrStakeTooLow = errors.New("stake too low")
	// ErrMissingField means a required request field was empty.
	ErrMissingField = errors.New("missing required field")
	// ErrStatusRegression means an update tried to move a room's status backwards.
	ErrStatusRegression = errors.New("room status cannot move backwards")
	// ErrUnknownStatus means an update carried a status outside waiting/active/closed.
	ErrUnknownStatus = errors.New("unknown room status")
	// ErrUnknownNetwork means the network is not mainnet or testnet.
	ErrUnknownNetwork = errors.New("unknown network")
)
