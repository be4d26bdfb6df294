package turn

import "errors"

var (
	// ErrAISpeaking rejects recording while synthesized speech plays.
	ErrAISpeaking = errors.New("turn: please wait for the interviewer to finish speaking")
	// ErrMicDisabled rejects recording while the user has muted the mic.
	ErrMicDisabled = errors.New("turn: microphone is disabled")
	// ErrEchoInvariant means capture would stream during AI playback. It
	// indicates a coordinator bug and is never expected in practice.
	ErrEchoInvariant = errors.New("turn: microphone streaming while AI is speaking")
	ErrUnknownEvent  = errors.New("turn: unknown event")
)
