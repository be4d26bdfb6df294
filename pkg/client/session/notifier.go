package session

import (
	"github.com/xpanvictor/intervox/pkg/client/audio"
	"github.com/xpanvictor/intervox/pkg/client/transport"
	"github.com/xpanvictor/intervox/pkg/client/turn"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

// Notifier receives everything the user interface needs to render. Calls
// come from session goroutines and must not block.
type Notifier interface {
	OnQuestion(q protocol.Question, spokenText string)
	OnTranscript(text string, final bool)
	OnStatus(status protocol.Status)
	OnPhase(phase string)
	OnFeedback(fb protocol.Feedback)
	OnTurn(state turn.State)
	// OnSpeechStart carries the segment's estimated duration for progressive
	// text reveal.
	OnSpeechStart(seg audio.Segment)
	OnSpeechEnd(seg audio.Segment)
	OnConnection(state transport.State)
	OnError(err error)
}

// NopNotifier ignores everything. Embed it to implement a subset.
type NopNotifier struct{}

func (NopNotifier) OnQuestion(protocol.Question, string) {}
func (NopNotifier) OnTranscript(string, bool)            {}
func (NopNotifier) OnStatus(protocol.Status)             {}
func (NopNotifier) OnPhase(string)                       {}
func (NopNotifier) OnFeedback(protocol.Feedback)         {}
func (NopNotifier) OnTurn(turn.State)                    {}
func (NopNotifier) OnSpeechStart(audio.Segment)          {}
func (NopNotifier) OnSpeechEnd(audio.Segment)            {}
func (NopNotifier) OnConnection(transport.State)         {}
func (NopNotifier) OnError(error)                        {}

// ServerError is an error message pushed by the server.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Code == "" {
		return "server: " + e.Message
	}
	return "server: " + e.Code + ": " + e.Message
}
