// Package session wires the transport, the turn coordinator and the audio
// adapter into one interview session.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/client/audio"
	"github.com/xpanvictor/intervox/pkg/client/transport"
	"github.com/xpanvictor/intervox/pkg/client/turn"
	audioring "github.com/xpanvictor/intervox/pkg/io/stt/audioRing"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

// Transport is the subset of *transport.Channel the session drives.
type Transport interface {
	Connect(ctx context.Context) error
	Send(msg protocol.Message) error
	SendBinary(data []byte) error
	State() transport.State
	Close() error
}

type Capture interface {
	Start(ctx context.Context) error
	Pause()
	Resume()
	SetCallbacks(cb audio.CaptureCallbacks)
	Close() error
}

type Player interface {
	Start()
	Enqueue(seg audio.Segment)
	Clear() int
	Idle() bool
	SetCallbacks(cb audio.PlayerCallbacks)
	Close()
}

// TransportFactory builds the transport once the session exists to listen.
type TransportFactory func(listener transport.Listener) (Transport, error)

type Config struct {
	Transport transport.Config
	Turn      turn.Config
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	Turn       turn.Snapshot
	Connection transport.State
	Question   *protocol.Question
	Phase      string
	Ended      bool
}

type Option func(*Session)

func WithTransport(f TransportFactory) Option {
	return func(s *Session) { s.newTransport = f }
}

func WithCapture(c Capture) Option {
	return func(s *Session) { s.capture = c }
}

func WithPlayer(p Player) Option {
	return func(s *Session) { s.player = p }
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notify = n }
}

func WithLogger(l *Logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session is one interview seen from the client. Every turn dispatch and the
// effects it produces run under turnMu, so triggers from the network, the
// devices and the user are applied one at a time.
type Session struct {
	log    *Logger.Logger
	notify Notifier

	newTransport TransportFactory
	transport    Transport
	turn         *turn.Coordinator
	capture      Capture
	player       Player

	turnMu sync.Mutex

	mu        sync.Mutex
	question  *protocol.Question
	phase     string
	ended     bool
	connState transport.State

	audioDropped atomic.Uint64
	closeOnce    sync.Once
}

func New(cfg Config, opts ...Option) (*Session, error) {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	s.log = Logger.OrNop(s.log).Named("session")
	if s.notify == nil {
		s.notify = NopNotifier{}
	}
	if s.capture == nil {
		return nil, errors.New("session: capture is required")
	}
	if s.player == nil {
		s.player = audio.NewPlayer(audio.DiscardSink{}, s.log)
	}
	if s.newTransport == nil {
		tcfg := cfg.Transport
		log := s.log
		s.newTransport = func(l transport.Listener) (Transport, error) {
			return transport.New(tcfg, l, transport.WithLogger(log))
		}
	}

	t, err := s.newTransport(s)
	if err != nil {
		return nil, fmt.Errorf("session: transport: %w", err)
	}
	s.transport = t
	s.turn = turn.New(cfg.Turn, s.log)

	s.capture.SetCallbacks(audio.CaptureCallbacks{
		OnChunk:   s.onChunk,
		OnSilence: func() { s.dispatchLogged(turn.Silence) },
		OnError:   s.onCaptureError,
	})
	s.player.SetCallbacks(audio.PlayerCallbacks{
		OnStart:   s.notify.OnSpeechStart,
		OnEnd:     func(seg audio.Segment, _ error) { s.notify.OnSpeechEnd(seg) },
		OnDrained: s.onDrained,
	})
	return s, nil
}

// Start connects and acquires the microphone. A microphone failure is
// reported through the Notifier and leaves the session usable without audio
// input; only terminal transport errors are returned.
func (s *Session) Start(ctx context.Context) error {
	s.player.Start()
	if err := s.transport.Connect(ctx); err != nil {
		return err
	}

	if err := s.capture.Start(ctx); err != nil {
		s.log.Warnw("microphone unavailable", "error", err)
		s.notify.OnError(err)
		s.dispatchLogged(turn.MicDisabled)
	}
	return nil
}

func (s *Session) BeginInterview() error {
	return s.transport.Send(protocol.Control(protocol.TypeStart))
}

// StartTalking opens the microphone for an answer. It fails with
// turn.ErrAISpeaking while the interviewer is talking.
func (s *Session) StartTalking(ctx context.Context) error {
	return s.dispatch(ctx, turn.StartRecording)
}

func (s *Session) StopTalking(ctx context.Context) error {
	return s.dispatch(ctx, turn.StopRecording)
}

// SubmitAnswer ends the current answer and asks the server to evaluate it.
func (s *Session) SubmitAnswer(ctx context.Context) error {
	return s.dispatch(ctx, turn.SubmitAnswer)
}

// Interrupt cuts the interviewer off.
func (s *Session) Interrupt(ctx context.Context) error {
	return s.dispatch(ctx, turn.Interrupt)
}

func (s *Session) SkipQuestion(ctx context.Context) error {
	if err := s.dispatch(ctx, turn.StopRecording); err != nil {
		return err
	}
	return s.transport.Send(protocol.Control(protocol.TypeSkipQuestion))
}

func (s *Session) EndInterview(ctx context.Context) error {
	if err := s.dispatch(ctx, turn.StopRecording); err != nil {
		return err
	}
	return s.transport.Send(protocol.Control(protocol.TypeEndInterview))
}

func (s *Session) SetMicEnabled(ctx context.Context, enabled bool) error {
	if enabled {
		return s.dispatch(ctx, turn.MicEnabled)
	}
	return s.dispatch(ctx, turn.MicDisabled)
}

func (s *Session) SetVisible(ctx context.Context, visible bool) error {
	if visible {
		return s.dispatch(ctx, turn.Visible)
	}
	return s.dispatch(ctx, turn.Hidden)
}

func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Turn:       s.turn.Snapshot(),
		Connection: s.transport.State(),
		Phase:      s.phase,
		Ended:      s.ended,
	}
	if s.question != nil {
		q := *s.question
		snap.Question = &q
	}
	return snap
}

func (s *Session) Stats() map[string]interface{} {
	return map[string]interface{}{
		"turn":          string(s.turn.State()),
		"connection":    s.transport.State().String(),
		"audio_dropped": s.audioDropped.Load(),
	}
}

// Close releases the microphone, stops playback and closes the connection.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.player.Close()
		err = errors.Join(s.capture.Close(), s.transport.Close())
	})
	return err
}

func (s *Session) dispatch(ctx context.Context, ev turn.Event) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	return s.dispatchLocked(ctx, ev)
}

func (s *Session) dispatchLocked(ctx context.Context, ev turn.Event) error {
	res, err := s.turn.Dispatch(ctx, ev)
	if err != nil && !errors.Is(err, turn.ErrEchoInvariant) {
		return err
	}
	applyErr := s.apply(res.Effects)
	if res.Changed() {
		s.notify.OnTurn(res.To)
	}
	if err != nil {
		return err
	}
	return applyErr
}

// dispatchLogged is for triggers nobody waits on.
func (s *Session) dispatchLogged(ev turn.Event) {
	if err := s.dispatch(context.Background(), ev); err != nil {
		s.log.Warnw("turn event rejected", "event", ev, "error", err)
	}
}

func (s *Session) apply(effects []turn.Effect) error {
	var errs []error
	for _, eff := range effects {
		var err error
		switch eff {
		case turn.PauseCapture:
			s.capture.Pause()
		case turn.ResumeCapture:
			s.capture.Resume()
		case turn.HaltPlayback:
			n := s.player.Clear()
			s.log.Debugw("playback halted", "segments", n)
		case turn.SendStartRecording:
			err = s.transport.Send(protocol.Control(protocol.TypeStartRecording))
		case turn.SendStopRecording:
			err = s.transport.Send(protocol.Control(protocol.TypeStopRecording))
		case turn.SendAnswerComplete:
			err = s.transport.Send(protocol.Control(protocol.TypeAnswerComplete))
		case turn.SendInterrupt:
			err = s.transport.Send(protocol.Control(protocol.TypeInterrupt))
		case turn.SendPlaybackComplete:
			err = s.transport.Send(protocol.Control(protocol.TypePlaybackComplete))
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", eff, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) onChunk(chunk audioring.Chunk) {
	if err := s.transport.SendBinary(chunk.Data); err != nil {
		s.audioDropped.Add(1)
		if !errors.Is(err, transport.ErrNotConnected) {
			s.log.Debugw("audio chunk dropped", "seq", chunk.Seq, "error", err)
		}
	}
}

func (s *Session) onDrained() {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	// a segment may have been queued between the drain and this call
	if !s.player.Idle() {
		return
	}
	if err := s.dispatchLocked(context.Background(), turn.PlaybackDone); err != nil {
		s.log.Warnw("playback completion not applied", "error", err)
	}
}

func (s *Session) onCaptureError(err error) {
	s.notify.OnError(err)
	s.dispatchLogged(turn.MicDisabled)
}

// HandleMessage implements transport.Listener.
func (s *Session) HandleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeQuestion:
		s.onQuestion(msg)
	case protocol.TypeTranscript:
		s.notify.OnTranscript(msg.Text, msg.IsFinal)
	case protocol.TypeStatus:
		s.notify.OnStatus(msg.Status)
	case protocol.TypePhaseChange:
		s.mu.Lock()
		s.phase = msg.Phase
		s.mu.Unlock()
		s.notify.OnPhase(msg.Phase)
	case protocol.TypeFeedback:
		s.mu.Lock()
		s.ended = true
		s.mu.Unlock()
		if msg.Feedback != nil {
			s.notify.OnFeedback(*msg.Feedback)
		}
	case protocol.TypeError:
		s.notify.OnError(&ServerError{Code: msg.Code, Message: msg.Message})
	case protocol.TypeConnected:
		s.log.Infow("joined interview", "session", msg.SessionID)
	case protocol.TypeInterrupted, protocol.TypePong, protocol.TypeHeartbeat:
	default:
		s.log.Debugw("ignoring message", "type", msg.Type)
	}
}

func (s *Session) onQuestion(msg protocol.Message) {
	if msg.Question == nil {
		return
	}
	var speech []byte
	if msg.Audio != "" {
		b, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			s.log.Warnw("question audio undecodable, showing text only", "error", err)
		} else {
			speech = b
		}
	}
	spoken := msg.SpokenText
	if spoken == "" {
		spoken = msg.Question.Text
	}

	q := *msg.Question
	s.mu.Lock()
	s.question = &q
	if msg.Phase != "" {
		s.phase = msg.Phase
	}
	s.mu.Unlock()
	s.notify.OnQuestion(q, spoken)

	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	// capture is paused by the dispatch before the segment can start
	if err := s.dispatchLocked(context.Background(), turn.SpeechArrived); err != nil {
		s.log.Errorw("speech arrival not applied", "error", err)
	}
	s.player.Enqueue(audio.Segment{ID: q.ID, Text: spoken, Audio: speech})
}

// HandleState implements transport.Listener.
func (s *Session) HandleState(state transport.State) {
	s.mu.Lock()
	prev := s.connState
	s.connState = state
	s.mu.Unlock()

	if state == transport.StateConnected && prev == transport.StateReconnecting {
		s.rejoin()
	}
	s.notify.OnConnection(state)
}

// rejoin restores an open answer after a reconnect. The server starts every
// connection idle, so audio would be dropped until start_recording is seen
// again; what was streamed before the outage is not kept.
func (s *Session) rejoin() {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if s.turn.State() != turn.UserRecording {
		return
	}
	s.log.Warnw("reconnected mid-answer, restarting recording")
	if err := s.transport.Send(protocol.Control(protocol.TypeStartRecording)); err != nil {
		s.log.Errorw("recording not restarted", "error", err)
		s.notify.OnError(err)
		if err := s.dispatchLocked(context.Background(), turn.StopRecording); err != nil {
			s.log.Warnw("turn event rejected", "event", turn.StopRecording, "error", err)
		}
	}
}

// HandleError implements transport.Listener.
func (s *Session) HandleError(err error) {
	if transport.IsTerminal(err) {
		s.log.Errorw("connection ended", "error", err)
		s.dispatchLogged(turn.StopRecording)
	}
	s.notify.OnError(err)
}
