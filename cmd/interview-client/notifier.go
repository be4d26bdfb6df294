package main

import (
	"sync"
	"time"

	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/client/audio"
	"github.com/xpanvictor/intervox/pkg/client/session"
	"github.com/xpanvictor/intervox/pkg/client/transport"
	"github.com/xpanvictor/intervox/pkg/client/turn"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

// logNotifier prints session events and signals the main loop when the
// interviewer finishes speaking or the interview is over.
type logNotifier struct {
	log *Logger.Logger

	// receives after every ai_speaking -> idle transition
	yourTurn chan struct{}
	done     chan struct{}

	mu       sync.Mutex
	last     turn.State
	doneOnce sync.Once
}

var _ session.Notifier = (*logNotifier)(nil)

func newLogNotifier(log *Logger.Logger) *logNotifier {
	return &logNotifier{
		log:      log,
		yourTurn: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (n *logNotifier) finish() {
	n.doneOnce.Do(func() { close(n.done) })
}

func (n *logNotifier) OnQuestion(q protocol.Question, spokenText string) {
	if q.Title != "" {
		n.log.Infof("QUESTION [%s] %s: %s", q.Type, q.Title, q.Description)
		return
	}
	n.log.Infof("QUESTION [%s] %s", q.Type, q.Text)
}

func (n *logNotifier) OnTranscript(text string, final bool) {
	if final {
		n.log.Infof("YOU: %s", text)
		return
	}
	n.log.Infof("(hearing) %s", text)
}

func (n *logNotifier) OnStatus(status protocol.Status) {
	n.log.Debugf("status %s", status)
}

func (n *logNotifier) OnPhase(phase string) {
	n.log.Infof("phase: %s", phase)
}

func (n *logNotifier) OnFeedback(fb protocol.Feedback) {
	n.log.Infof("FEEDBACK (%d answers, %d minutes): %s", fb.QuestionsAnswered, fb.DurationMinutes, fb.Summary)
	n.finish()
}

func (n *logNotifier) OnTurn(state turn.State) {
	n.mu.Lock()
	prev := n.last
	n.last = state
	n.mu.Unlock()

	n.log.Debugf("turn %s -> %s", prev, state)
	if prev == turn.AISpeaking && state == turn.Idle {
		select {
		case n.yourTurn <- struct{}{}:
		default:
		}
	}
}

func (n *logNotifier) OnSpeechStart(seg audio.Segment) {
	n.log.Infof("speaking (%s)", seg.Duration.Round(100*time.Millisecond))
}

func (n *logNotifier) OnSpeechEnd(audio.Segment) {}

func (n *logNotifier) OnConnection(state transport.State) {
	n.log.Infof("connection %s", state)
	if state == transport.StateClosed {
		n.finish()
	}
}

func (n *logNotifier) OnError(err error) {
	n.log.Errorf("%v", err)
	if transport.IsTerminal(err) {
		n.finish()
	}
}
