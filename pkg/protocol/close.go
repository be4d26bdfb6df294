package protocol

import "github.com/gorilla/websocket"

// Application close codes. 1000 is a normal, user-initiated closure.
const (
	CloseNormal          = websocket.CloseNormalClosure
	CloseUnauthorized    = 4001
	CloseSessionNotFound = 4004
	CloseTooManyErrors   = 4008
	CloseInactive        = 4009
)

// CloseClass drives the client's reconnection policy.
type CloseClass int

const (
	// CloseClassNormal ends the session without reconnecting.
	CloseClassNormal CloseClass = iota
	// CloseClassAuth is terminal until the user re-authenticates.
	CloseClassAuth
	// CloseClassTerminal covers server verdicts a retry cannot change.
	CloseClassTerminal
	// CloseClassAbnormal is anything else; the client retries with backoff.
	CloseClassAbnormal
)

func (c CloseClass) String() string {
	switch c {
	case CloseClassNormal:
		return "normal"
	case CloseClassAuth:
		return "auth"
	case CloseClassTerminal:
		return "terminal"
	default:
		return "abnormal"
	}
}

// ClassifyClose maps a websocket close code to its reconnection class.
func ClassifyClose(code int) CloseClass {
	switch code {
	case CloseNormal:
		return CloseClassNormal
	case CloseUnauthorized:
		return CloseClassAuth
	case CloseSessionNotFound:
		return CloseClassTerminal
	default:
		return CloseClassAbnormal
	}
}
