// Package turn owns whose turn it is on the audio channel. It never touches
// devices or the network: every dispatch returns the effects the caller must
// apply, in order.
package turn

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
	"github.com/xpanvictor/intervox/pkg/Logger"
)

type State string

const (
	Idle          State = "idle"
	AISpeaking    State = "ai_speaking"
	UserRecording State = "user_recording"
)

// Event is a trigger fed into Dispatch.
type Event string

const (
	// SpeechArrived: a synthesized-speech payload was queued for playback.
	SpeechArrived Event = "speech_arrived"
	// PlaybackDone: the playback queue drained.
	PlaybackDone   Event = "playback_done"
	StartRecording Event = "start_recording"
	StopRecording  Event = "stop_recording"
	// Silence: voice activity detection declared the answer over.
	Silence      Event = "silence"
	SubmitAnswer Event = "submit_answer"
	Interrupt    Event = "interrupt"
	MicDisabled  Event = "mic_disabled"
	MicEnabled   Event = "mic_enabled"
	Hidden       Event = "hidden"
	Visible      Event = "visible"
)

// Effect is an instruction for the audio adapter or the transport.
type Effect string

const (
	PauseCapture  Effect = "pause_capture"
	ResumeCapture Effect = "resume_capture"
	// HaltPlayback stops the current segment and clears the queue.
	HaltPlayback         Effect = "halt_playback"
	SendStartRecording   Effect = "send_start_recording"
	SendStopRecording    Effect = "send_stop_recording"
	SendAnswerComplete   Effect = "send_answer_complete"
	SendInterrupt        Effect = "send_interrupt"
	SendPlaybackComplete Effect = "send_playback_complete"
)

// Result of one dispatch.
type Result struct {
	Event   Event
	From    State
	To      State
	Effects []Effect
}

func (r Result) Changed() bool {
	return r.From != r.To
}

// fsm event names
const (
	fsmSpeech    = "speech"
	fsmDrained   = "drained"
	fsmRecord    = "record"
	fsmStop      = "stop"
	fsmInterrupt = "interrupt"
)

type Config struct {
	// SubmitOnSilence sends answer_complete instead of stop_recording when
	// silence ends a recording.
	SubmitOnSilence bool
	// RecordAfterInterrupt starts recording right after an interrupt.
	RecordAfterInterrupt bool
}

func DefaultConfig() Config {
	return Config{SubmitOnSilence: true, RecordAfterInterrupt: true}
}

// Snapshot is a copy of the coordinator's state and flags.
type Snapshot struct {
	State             State
	MicEnabled        bool
	Visible           bool
	Streaming         bool
	ResumeAfterSpeech bool
}

// Coordinator is the turn-taking state machine. Dispatch is its only
// mutating entry point.
type Coordinator struct {
	cfg Config
	log *Logger.Logger

	mu                sync.Mutex
	machine           *fsm.FSM
	micEnabled        bool
	visible           bool
	streaming         bool
	resumeAfterSpeech bool
}

func New(cfg Config, log *Logger.Logger) *Coordinator {
	c := &Coordinator{
		cfg:        cfg,
		log:        Logger.OrNop(log).Named("turn"),
		micEnabled: true,
		visible:    true,
	}
	c.machine = fsm.NewFSM(
		string(Idle),
		fsm.Events{
			{Name: fsmSpeech, Src: []string{string(Idle), string(UserRecording), string(AISpeaking)}, Dst: string(AISpeaking)},
			{Name: fsmDrained, Src: []string{string(AISpeaking)}, Dst: string(Idle)},
			{Name: fsmRecord, Src: []string{string(Idle)}, Dst: string(UserRecording)},
			{Name: fsmStop, Src: []string{string(UserRecording)}, Dst: string(Idle)},
			{Name: fsmInterrupt, Src: []string{string(AISpeaking)}, Dst: string(Idle)},
		},
		fsm.Callbacks{
			"before_" + fsmRecord: func(_ context.Context, e *fsm.Event) {
				// flags are read under c.mu, which Dispatch holds
				if !c.micEnabled {
					e.Cancel(ErrMicDisabled)
				}
			},
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.log.Debugf("turn %s -> %s on %s", e.Src, e.Dst, e.Event)
			},
		},
	)
	return c
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State(c.machine.Current())
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:             State(c.machine.Current()),
		MicEnabled:        c.micEnabled,
		Visible:           c.visible,
		Streaming:         c.streaming,
		ResumeAfterSpeech: c.resumeAfterSpeech,
	}
}

// Dispatch applies ev and returns the effects to perform in order. A
// rejected event returns an error and no effects; the state is unchanged.
func (c *Coordinator) Dispatch(ctx context.Context, ev Event) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := State(c.machine.Current())
	res := Result{Event: ev, From: from}

	var err error
	switch ev {
	case SpeechArrived:
		err = c.onSpeech(ctx, &res)
	case PlaybackDone:
		err = c.onDrained(ctx, &res)
	case StartRecording:
		err = c.onStartRecording(ctx, &res)
	case StopRecording:
		err = c.endRecording(ctx, &res, SendStopRecording)
	case Silence:
		if c.cfg.SubmitOnSilence {
			err = c.endRecording(ctx, &res, SendAnswerComplete)
		} else {
			err = c.endRecording(ctx, &res, SendStopRecording)
		}
	case SubmitAnswer:
		err = c.onSubmit(ctx, &res)
	case Interrupt:
		err = c.onInterrupt(ctx, &res)
	case MicDisabled:
		c.micEnabled = false
		c.resumeAfterSpeech = false
		err = c.endRecording(ctx, &res, SendStopRecording)
	case MicEnabled:
		c.micEnabled = true
	case Hidden:
		c.visible = false
		if c.streaming {
			c.pause(&res)
		}
	case Visible:
		c.visible = true
		if State(c.machine.Current()) == UserRecording && c.micEnabled && !c.streaming {
			c.resume(&res)
		}
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownEvent, ev)
	}
	if err != nil {
		return Result{Event: ev, From: from, To: from}, err
	}

	res.To = State(c.machine.Current())
	if res.To == AISpeaking && c.streaming {
		c.log.Errorf("echo invariant violated after %s", ev)
		return res, ErrEchoInvariant
	}
	return res, nil
}

func (c *Coordinator) onSpeech(ctx context.Context, res *Result) error {
	if State(c.machine.Current()) == UserRecording {
		// paused, not stopped: the device stays open for a quick resume
		c.resumeAfterSpeech = true
		if c.streaming {
			c.pause(res)
		}
	}
	_, err := c.fire(ctx, fsmSpeech)
	return err
}

func (c *Coordinator) onDrained(ctx context.Context, res *Result) error {
	if State(c.machine.Current()) != AISpeaking {
		return nil
	}
	if _, err := c.fire(ctx, fsmDrained); err != nil {
		return err
	}
	res.Effects = append(res.Effects, SendPlaybackComplete)

	resume := c.resumeAfterSpeech
	c.resumeAfterSpeech = false
	if resume && c.micEnabled {
		return c.startRecording(ctx, res)
	}
	return nil
}

func (c *Coordinator) onStartRecording(ctx context.Context, res *Result) error {
	switch State(c.machine.Current()) {
	case AISpeaking:
		return ErrAISpeaking
	case UserRecording:
		return nil
	}
	return c.startRecording(ctx, res)
}

func (c *Coordinator) startRecording(ctx context.Context, res *Result) error {
	if _, err := c.fire(ctx, fsmRecord); err != nil {
		return err
	}
	res.Effects = append(res.Effects, SendStartRecording)
	if c.visible {
		c.resume(res)
	}
	return nil
}

// endRecording leaves user_recording, telling the server how the answer ended.
func (c *Coordinator) endRecording(ctx context.Context, res *Result, notify Effect) error {
	if State(c.machine.Current()) != UserRecording {
		return nil
	}
	if _, err := c.fire(ctx, fsmStop); err != nil {
		return err
	}
	if c.streaming {
		c.pause(res)
	}
	res.Effects = append(res.Effects, notify)
	return nil
}

func (c *Coordinator) onSubmit(ctx context.Context, res *Result) error {
	switch State(c.machine.Current()) {
	case AISpeaking:
		return ErrAISpeaking
	case UserRecording:
		return c.endRecording(ctx, res, SendAnswerComplete)
	}
	res.Effects = append(res.Effects, SendAnswerComplete)
	return nil
}

func (c *Coordinator) onInterrupt(ctx context.Context, res *Result) error {
	if State(c.machine.Current()) != AISpeaking {
		return nil
	}
	if _, err := c.fire(ctx, fsmInterrupt); err != nil {
		return err
	}
	res.Effects = append(res.Effects, HaltPlayback, SendInterrupt)

	resume := c.resumeAfterSpeech || c.cfg.RecordAfterInterrupt
	c.resumeAfterSpeech = false
	if resume && c.micEnabled {
		return c.startRecording(ctx, res)
	}
	return nil
}

func (c *Coordinator) pause(res *Result) {
	c.streaming = false
	res.Effects = append(res.Effects, PauseCapture)
}

func (c *Coordinator) resume(res *Result) {
	c.streaming = true
	res.Effects = append(res.Effects, ResumeCapture)
}

// fire runs an fsm event. A self-transition is not an error.
func (c *Coordinator) fire(ctx context.Context, name string) (bool, error) {
	err := c.machine.Event(ctx, name)
	if err == nil {
		return true, nil
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return false, nil
	}
	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return false, canceled.Err
	}
	return false, fmt.Errorf("turn: %s from %s: %w", name, c.machine.Current(), err)
}
