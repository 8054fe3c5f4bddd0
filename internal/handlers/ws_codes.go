// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handler.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	InvalidNetworkError = 3002 // Network in the WS URL is not mainnet or testnet.
	InvalidRoomIDError  = 3003 // Target room does not exist on the network.
	NoControlError      = 3004 // Room has no control object, so there is nothing to watch.
	RoomClosedError     = 3005 // Room was deleted while being watched.
)
