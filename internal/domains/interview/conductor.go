package interview

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/io/stt"
	audioring "github.com/xpanvictor/intervox/pkg/io/stt/audioRing"
	"github.com/xpanvictor/intervox/pkg/io/tts"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

const (
	MsgWaitForAI     = "Please wait for AI to finish speaking"
	MsgTooManyErrors = "Too many errors. Please reconnect."
	MsgTimeout       = "Processing took too long. Please try again."

	minAnswerLength = 3
	// slack for network and player latency past the audio length
	speakingGrace = 2 * time.Second
)

var (
	ErrTooManyErrors = errors.New("too many consecutive errors")
	errUnknownType   = errors.New("unsupported message type")
)

// Emitter delivers messages to one connected client.
type Emitter interface {
	Emit(msg protocol.Message) error
	Close(code int, reason string)
}

type ConductorConfig struct {
	SampleRate        int
	ProcessingTimeout time.Duration
	MaxErrors         int
	// bytes of answer audio kept while recording
	BufferSize int
}

func (c ConductorConfig) withDefaults() ConductorConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = 30 * time.Second
	}
	if c.MaxErrors <= 0 {
		c.MaxErrors = 5
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 4 << 20
	}
	return c
}

type ConductorStats struct {
	EchoDropped uint64 `json:"echo_dropped"`
	IdleDropped uint64 `json:"idle_dropped"`
	Buffered    int    `json:"buffered_bytes"`
	Speaking    bool   `json:"ai_speaking"`
	Processing  bool   `json:"processing"`
}

// Conductor runs the live voice loop of one interview over one connection.
// Audio arriving while the AI speaks is dropped so the candidate's
// microphone never records the question being played back.
type Conductor struct {
	interviewID string
	svc         *Service
	stt         stt.Transcriber
	speech      *SpeechCache
	out         Emitter
	cfg         ConductorConfig
	log         *Logger.Logger
	now         func() time.Time

	mu            sync.Mutex
	speakingUntil time.Time
	recording     bool
	processing    bool
	ended         bool
	answer        audioring.Ring
	seq           uint64
	segments      []string
	segmentGen    uint64
	interimDone   chan struct{}
	errCount      int
	echoDropped   uint64
	idleDropped   uint64

	wg sync.WaitGroup
}

func NewConductor(
	interviewID string,
	svc *Service,
	transcriber stt.Transcriber,
	speech *SpeechCache,
	out Emitter,
	cfg ConductorConfig,
	log *Logger.Logger,
) *Conductor {
	cfg = cfg.withDefaults()
	return &Conductor{
		interviewID: interviewID,
		svc:         svc,
		stt:         transcriber,
		speech:      speech,
		out:         out,
		cfg:         cfg,
		log:         Logger.OrNop(log).Named("conductor").With("interview", interviewID),
		now:         time.Now,
		answer:      audioring.New(cfg.BufferSize),
	}
}

// HandleText decodes and handles one text frame. Malformed frames are
// dropped. ctx must live as long as the connection; answer processing
// continues on it after HandleText returns.
func (c *Conductor) HandleText(ctx context.Context, data []byte) error {
	msg, err := protocol.Decode(data)
	if err != nil {
		c.log.Warnf("dropping malformed message: %v", err)
		return nil
	}
	return c.Handle(ctx, msg)
}

func (c *Conductor) Handle(ctx context.Context, msg protocol.Message) error {
	var err error
	async := false
	switch msg.Type {
	case protocol.TypePing:
		return c.emit(protocol.Control(protocol.TypePong))
	case protocol.TypeStart:
		async, err = true, c.runExclusive(ctx, c.start)
	case protocol.TypeStartRecording:
		err = c.startRecording()
	case protocol.TypeStopRecording:
		async, err = true, c.stopRecording(ctx)
	case protocol.TypeAnswerComplete:
		async, err = true, c.answerComplete(ctx)
	case protocol.TypeInterrupt:
		err = c.interrupt()
	case protocol.TypeSkipQuestion:
		async, err = true, c.runExclusive(ctx, c.skip)
	case protocol.TypeEndInterview:
		async, err = true, c.runExclusive(ctx, c.end)
	case protocol.TypePlaybackComplete:
		err = c.playbackComplete()
	default:
		err = fmt.Errorf("%w: %s", errUnknownType, msg.Type)
	}
	// background work settles its own outcome
	if async && err == nil {
		return nil
	}
	return c.settle(err)
}

// HandleAudio buffers one binary frame of PCM16 answer audio.
func (c *Conductor) HandleAudio(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.aiSpeakingLocked() {
		c.echoDropped++
		return
	}
	if !c.recording || c.processing || c.ended {
		c.idleDropped++
		return
	}
	c.seq++
	chunk := audioring.Chunk{
		Seq:        c.seq,
		Data:       data,
		Timestamp:  c.now(),
		SampleRate: int32(c.cfg.SampleRate),
		Channels:   1,
	}
	if err := c.answer.Enqueue(chunk); err != nil {
		c.log.Warnf("dropping audio frame %d: %v", c.seq, err)
	}
}

// Wait blocks until background answer processing has finished.
func (c *Conductor) Wait() {
	c.wg.Wait()
}

func (c *Conductor) Stats() ConductorStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConductorStats{
		EchoDropped: c.echoDropped,
		IdleDropped: c.idleDropped,
		Buffered:    c.answer.Len(),
		Speaking:    c.aiSpeakingLocked(),
		Processing:  c.processing,
	}
}

// settle reports err to the client. Refusals are not failures; failures
// count toward the consecutive error limit and reset on success.
func (c *Conductor) settle(err error) error {
	if err == nil {
		c.mu.Lock()
		c.errCount = 0
		c.mu.Unlock()
		return nil
	}

	switch {
	case errors.Is(err, ErrAISpeaking):
		return c.emit(protocol.ErrorMessage("ai_speaking", MsgWaitForAI))
	case errors.Is(err, ErrBusy):
		return c.emit(protocol.ErrorMessage("busy", "Still processing your previous answer"))
	case errors.Is(err, ErrEnded):
		return c.emit(protocol.ErrorMessage("interview_ended", "This interview has ended"))
	case errors.Is(err, errUnknownType):
		c.log.Warnf("%v", err)
		return c.emit(protocol.ErrorMessage("unknown_message", err.Error()))
	}

	c.mu.Lock()
	c.errCount++
	count := c.errCount
	c.mu.Unlock()

	c.log.Errorf("handling failed (%d/%d): %v", count, c.cfg.MaxErrors, err)
	if errors.Is(err, context.DeadlineExceeded) {
		_ = c.emit(protocol.ErrorMessage("timeout", MsgTimeout))
	} else {
		_ = c.emit(protocol.ErrorMessage("internal", "Failed to process request"))
	}
	if count >= c.cfg.MaxErrors {
		_ = c.emit(protocol.ErrorMessage("too_many_errors", MsgTooManyErrors))
		c.out.Close(protocol.CloseTooManyErrors, MsgTooManyErrors)
		return ErrTooManyErrors
	}
	return nil
}

// runExclusive runs fn in the background under the processing guard and a
// processing timeout.
func (c *Conductor) runExclusive(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return ErrBusy
	}
	c.processing = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, c.cfg.ProcessingTimeout)
		defer cancel()
		err := fn(ctx)
		c.mu.Lock()
		c.processing = false
		c.mu.Unlock()
		_ = c.settle(err)
	}()
	return nil
}

// start sends the question awaiting an answer, the greeting for a fresh
// interview. Reconnecting clients get the current question again.
func (c *Conductor) start(ctx context.Context) error {
	iv, err := c.svc.Get(ctx, c.interviewID)
	if err != nil {
		return err
	}
	if iv.Ended() {
		c.markEnded()
		return ErrEnded
	}
	q := iv.Current()
	if q == nil {
		return fmt.Errorf("interview %s has no question", c.interviewID)
	}
	return c.speak(ctx, *q, iv.Phase)
}

func (c *Conductor) startRecording() error {
	c.mu.Lock()
	switch {
	case c.ended:
		c.mu.Unlock()
		return ErrEnded
	case c.aiSpeakingLocked():
		c.mu.Unlock()
		return ErrAISpeaking
	case c.processing:
		c.mu.Unlock()
		return ErrBusy
	}
	c.recording = true
	c.mu.Unlock()
	return c.emit(protocol.StatusMessage(protocol.StatusListening))
}

// stopRecording transcribes what was said since recording started in the
// background and sends it as an interim transcript. Interim transcripts are
// delivered and kept in the order recording stopped.
func (c *Conductor) stopRecording(ctx context.Context) error {
	c.mu.Lock()
	was := c.recording
	c.recording = false
	pcm := c.takeAudioLocked()
	if !was && len(pcm) == 0 {
		c.mu.Unlock()
		return nil
	}
	gen := c.segmentGen
	prev := c.interimDone
	done := make(chan struct{})
	c.interimDone = done
	c.mu.Unlock()

	if err := c.emit(protocol.StatusMessage(protocol.StatusProcessing)); err != nil {
		close(done)
		return err
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		ctx, cancel := context.WithTimeout(ctx, c.cfg.ProcessingTimeout)
		defer cancel()
		text, err := c.transcribe(ctx, pcm)
		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
			}
		}
		_ = c.settle(c.deliverInterim(gen, text, err))
	}()
	return nil
}

func (c *Conductor) deliverInterim(gen uint64, text string, err error) error {
	if err != nil {
		_ = c.emit(protocol.StatusMessage(protocol.StatusListening))
		return err
	}
	if text != "" {
		c.mu.Lock()
		// the answer was reset while transcribing
		stale := gen != c.segmentGen
		if !stale {
			c.segments = append(c.segments, text)
		}
		c.mu.Unlock()
		if stale {
			return nil
		}
		if err := c.emit(protocol.TranscriptMessage(text, false)); err != nil {
			return err
		}
	}
	return c.emit(protocol.StatusMessage(protocol.StatusListening))
}

func (c *Conductor) answerComplete(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.ended:
		c.mu.Unlock()
		return ErrEnded
	case c.processing:
		c.mu.Unlock()
		return ErrBusy
	}
	c.recording = false
	pcm := c.takeAudioLocked()
	interim := c.interimDone
	c.mu.Unlock()

	return c.runExclusive(ctx, func(ctx context.Context) error {
		if interim != nil {
			select {
			case <-interim:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		c.mu.Lock()
		segments := c.segments
		c.resetSegmentsLocked()
		c.mu.Unlock()
		return c.processAnswer(ctx, pcm, segments)
	})
}

// resetSegmentsLocked discards interim transcripts, including any still
// being transcribed.
func (c *Conductor) resetSegmentsLocked() {
	c.segments = nil
	c.segmentGen++
}

func (c *Conductor) processAnswer(ctx context.Context, pcm []byte, segments []string) error {
	if err := c.emit(protocol.StatusMessage(protocol.StatusProcessing)); err != nil {
		return err
	}
	text, err := c.transcribe(ctx, pcm)
	if err != nil {
		_ = c.emit(protocol.StatusMessage(protocol.StatusListening))
		return err
	}
	if text != "" {
		segments = append(segments, text)
	}
	answer := strings.TrimSpace(strings.Join(segments, " "))
	if len([]rune(answer)) < minAnswerLength {
		c.log.Debugf("ignoring short answer %q", answer)
		return c.emit(protocol.StatusMessage(protocol.StatusListening))
	}
	if err := c.emit(protocol.TranscriptMessage(answer, true)); err != nil {
		return err
	}

	res, err := c.svc.ProcessAnswer(ctx, c.interviewID, answer)
	if err != nil {
		_ = c.emit(protocol.StatusMessage(protocol.StatusListening))
		return err
	}
	return c.advance(ctx, res)
}

func (c *Conductor) skip(ctx context.Context) error {
	c.mu.Lock()
	c.speakingUntil = time.Time{}
	c.recording = false
	c.resetSegmentsLocked()
	c.answer.Reset()
	c.mu.Unlock()

	res, err := c.svc.Skip(ctx, c.interviewID)
	if err != nil {
		return err
	}
	return c.advance(ctx, res)
}

func (c *Conductor) advance(ctx context.Context, res *AnswerResult) error {
	if res.Completed {
		return c.end(ctx)
	}
	if res.PhaseChanged {
		if err := c.emit(protocol.Message{Type: protocol.TypePhaseChange, Phase: string(res.Phase)}); err != nil {
			return err
		}
	}
	if res.Next == nil {
		return c.emit(protocol.StatusMessage(protocol.StatusListening))
	}
	return c.speak(ctx, *res.Next, res.Phase)
}

func (c *Conductor) end(ctx context.Context) error {
	c.mu.Lock()
	c.speakingUntil = time.Time{}
	c.recording = false
	c.mu.Unlock()

	if err := c.emit(protocol.StatusMessage(protocol.StatusProcessing)); err != nil {
		return err
	}
	report, err := c.svc.Finish(ctx, c.interviewID)
	if err != nil {
		return err
	}
	c.markEnded()
	return c.emit(protocol.Message{
		Type:     protocol.TypeFeedback,
		Phase:    string(PhaseEnded),
		Feedback: report.ToProtocol(),
	})
}

func (c *Conductor) interrupt() error {
	c.mu.Lock()
	c.speakingUntil = time.Time{}
	c.resetSegmentsLocked()
	c.recording = false
	c.answer.Reset()
	c.mu.Unlock()

	if err := c.emit(protocol.Control(protocol.TypeInterrupted)); err != nil {
		return err
	}
	return c.emit(protocol.StatusMessage(protocol.StatusListening))
}

func (c *Conductor) playbackComplete() error {
	c.mu.Lock()
	c.speakingUntil = time.Time{}
	c.mu.Unlock()
	return c.emit(protocol.StatusMessage(protocol.StatusListening))
}

// speak sends q with synthesized audio when available and closes the
// microphone gate for the playback length.
func (c *Conductor) speak(ctx context.Context, q Question, phase Phase) error {
	text := SpeakableText(q)
	msg := protocol.Message{
		Type:       protocol.TypeQuestion,
		Question:   q.ToProtocol(),
		Phase:      string(phase),
		SpokenText: text,
	}
	var audio []byte
	if c.speech != nil {
		a, err := c.speech.Speak(ctx, text)
		if err != nil {
			c.log.Warnf("speech synthesis failed, sending text only: %v", err)
		} else {
			audio = a
			msg.Audio = base64.StdEncoding.EncodeToString(a)
		}
	}

	c.mu.Lock()
	c.speakingUntil = c.now().Add(tts.Duration(audio, text) + speakingGrace)
	c.recording = false
	c.resetSegmentsLocked()
	c.answer.Reset()
	c.mu.Unlock()

	if err := c.emit(protocol.StatusMessage(protocol.StatusSpeaking)); err != nil {
		return err
	}
	return c.emit(msg)
}

func (c *Conductor) transcribe(ctx context.Context, pcm []byte) (string, error) {
	if len(pcm) == 0 || c.stt == nil {
		return "", nil
	}
	out, err := c.stt.Transcribe(ctx, stt.AudioInput{
		PCM:        pcm,
		SampleRate: c.cfg.SampleRate,
		StartedAt:  c.now(),
		ID:         uuid.New(),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}

// aiSpeakingLocked reports whether playback is still expected, clearing
// the gate once its deadline has passed.
func (c *Conductor) aiSpeakingLocked() bool {
	if c.speakingUntil.IsZero() {
		return false
	}
	if c.now().After(c.speakingUntil) {
		c.speakingUntil = time.Time{}
		return false
	}
	return true
}

func (c *Conductor) takeAudioLocked() []byte {
	return audioring.Concat(c.answer.Drain())
}

func (c *Conductor) markEnded() {
	c.mu.Lock()
	c.ended = true
	c.recording = false
	c.mu.Unlock()
}

func (c *Conductor) emit(msg protocol.Message) error {
	return c.out.Emit(msg)
}
