package transport

import "errors"

var (
	// ErrUnauthorized is terminal: the server rejected the token.
	ErrUnauthorized = errors.New("transport: unauthorized, sign in again")
	// ErrSessionNotFound is terminal: the interview no longer exists.
	ErrSessionNotFound = errors.New("transport: interview session not found")
	// ErrReconnectExhausted is surfaced once the retry budget is spent.
	ErrReconnectExhausted = errors.New("transport: connection lost, refresh and rejoin the interview")
	// ErrClosed is returned after Close or a terminal failure.
	ErrClosed = errors.New("transport: channel closed")
	// ErrNotConnected is returned for audio sent while the link is down.
	ErrNotConnected = errors.New("transport: not connected")
	// ErrQueueFull rejects a control message while disconnected with a full
	// pending queue.
	ErrQueueFull = errors.New("transport: pending queue full")
	// ErrStale is a liveness warning; the connection stays open.
	ErrStale = errors.New("transport: no activity from server")
)

// IsTerminal reports whether err ends the channel for good.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrReconnectExhausted) ||
		errors.Is(err, ErrClosed)
}
