package websocket

import "errors"

// Common errors for the websocket package.
var (
	// ErrConnectionClosed indicates the connection is closed.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrBroadcasterClosed is returned by Register after Shutdown.
	ErrBroadcasterClosed = errors.New("broadcaster is shut down")
	// ErrInvalidChatMessage indicates a chat frame that is not a JSON object.
	ErrInvalidChatMessage = errors.New("chat message must be a JSON object")
)
