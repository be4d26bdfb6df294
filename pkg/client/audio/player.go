package audio

import (
	"context"
	"sync"
	"time"

	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/io/tts"
)

// Segment is one synthesized utterance. Audio is a WAV file; a segment
// without audio is "played" by waiting out Duration so text reveal still
// works when synthesis failed.
type Segment struct {
	ID       string
	Text     string
	Audio    []byte
	Duration time.Duration
}

// Sink renders one segment, blocking until it finishes or ctx is cancelled.
type Sink interface {
	Play(ctx context.Context, seg Segment) error
}

// PlayerCallbacks run on the player goroutine. OnDrained fires when the queue
// empties after a segment that was not cleared.
type PlayerCallbacks struct {
	OnStart   func(seg Segment)
	OnEnd     func(seg Segment, err error)
	OnDrained func()
}

// Player plays segments in strict FIFO order.
type Player struct {
	sink Sink
	log  *Logger.Logger

	mu         sync.Mutex
	cb         PlayerCallbacks
	queue      []Segment
	playing    bool
	generation uint64
	cancel     context.CancelFunc
	wake       chan struct{}
	done       chan struct{}
	closed     bool
	started    bool
	wg         sync.WaitGroup
	played     uint64
}

func NewPlayer(sink Sink, log *Logger.Logger) *Player {
	if sink == nil {
		sink = DiscardSink{}
	}
	return &Player{
		sink: sink,
		log:  Logger.OrNop(log).Named("player"),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (p *Player) SetCallbacks(cb PlayerCallbacks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cb = cb
}

// Start launches the playback goroutine. Later calls are no-ops.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	p.wg.Add(1)
	go p.loop()
}

// Enqueue appends a segment, filling in Duration when it is unknown.
func (p *Player) Enqueue(seg Segment) {
	if seg.Duration <= 0 {
		seg.Duration = EstimateDuration(seg)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, seg)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Clear halts the current segment and drops everything queued. No callback
// fires for the halted segment.
func (p *Player) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.queue)
	p.queue = nil
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
		n++
	}
	p.playing = false
	return n
}

// Pending is the number of queued segments not yet started.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Idle reports that nothing is playing or queued.
func (p *Player) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.playing && len(p.queue) == 0
}

// Played counts segments that finished without being cleared.
func (p *Player) Played() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}

func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.queue = nil
	p.generation++
	if p.cancel != nil {
		p.cancel()
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Player) loop() {
	defer p.wg.Done()
	for {
		seg, gen, ctx, ok := p.next()
		if !ok {
			select {
			case <-p.done:
				return
			case <-p.wake:
				continue
			}
		}
		p.play(ctx, seg, gen)
	}
}

func (p *Player) next() (Segment, uint64, context.Context, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(p.queue) == 0 {
		return Segment{}, 0, nil, false
	}
	seg := p.queue[0]
	p.queue = p.queue[1:]
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.playing = true
	return seg, p.generation, ctx, true
}

func (p *Player) play(ctx context.Context, seg Segment, gen uint64) {
	p.mu.Lock()
	onStart := p.cb.OnStart
	p.mu.Unlock()
	if onStart != nil {
		onStart(seg)
	}

	var err error
	if len(seg.Audio) == 0 {
		err = wait(ctx, seg.Duration)
	} else {
		err = p.sink.Play(ctx, seg)
	}

	p.mu.Lock()
	if gen != p.generation {
		// cleared mid-segment
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.playing = false
	p.played++
	drained := len(p.queue) == 0
	onEnd, onDrained := p.cb.OnEnd, p.cb.OnDrained
	p.mu.Unlock()

	if err != nil {
		p.log.Warnw("segment playback failed", "segment", seg.ID, "error", err)
	}
	if onEnd != nil {
		onEnd(seg, err)
	}
	if drained && onDrained != nil {
		onDrained()
	}
}

// EstimateDuration uses the WAV header when present and falls back to a
// speaking-rate estimate of the text.
func EstimateDuration(seg Segment) time.Duration {
	return tts.Duration(seg.Audio, seg.Text)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
