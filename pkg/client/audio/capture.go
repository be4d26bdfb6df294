package audio

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xpanvictor/intervox/pkg/Logger"
	audioring "github.com/xpanvictor/intervox/pkg/io/stt/audioRing"
	"github.com/xpanvictor/intervox/pkg/io/stt/vad"
)

const defaultRingSize = 1 << 20

type CaptureConfig struct {
	// SampleRate the chunks are converted to. Zero keeps the device rate.
	SampleRate    int
	ChunkDuration time.Duration
	RingSize      int
	// VAD enables silence detection on captured audio.
	VAD *vad.VADConfig
}

// CaptureCallbacks are invoked from the capture goroutines. OnChunk must not
// call back into Capture.
type CaptureCallbacks struct {
	OnChunk       func(audioring.Chunk)
	OnSpeechStart func()
	OnSilence     func()
	OnError       func(error)
}

// Capture reads the microphone and emits fixed-duration chunks. It starts
// paused; nothing is emitted after Pause returns until Resume is called.
type Capture struct {
	device Device
	cfg    CaptureConfig
	log    *Logger.Logger

	ring     audioring.Ring
	detector *vad.Detector

	mu        sync.Mutex
	cb        CaptureCallbacks
	source    Source
	started   bool
	closed    bool
	done      chan struct{}
	wg        sync.WaitGroup
	seq       uint64
	readyCh   chan struct{}
	emitMu    sync.Mutex
	paused    atomic.Bool
	emitted   atomic.Uint64
	discarded atomic.Uint64
}

func NewCapture(device Device, cfg CaptureConfig, log *Logger.Logger) *Capture {
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = 250 * time.Millisecond
	}
	if cfg.RingSize <= 0 {
		cfg.RingSize = defaultRingSize
	}
	c := &Capture{
		device:  device,
		cfg:     cfg,
		log:     Logger.OrNop(log).Named("capture"),
		ring:    audioring.New(cfg.RingSize),
		done:    make(chan struct{}),
		readyCh: make(chan struct{}, 1),
	}
	if cfg.VAD != nil {
		c.detector = vad.NewDetector(*cfg.VAD)
	}
	c.paused.Store(true)
	return c
}

func (c *Capture) SetCallbacks(cb CaptureCallbacks) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
	if c.detector != nil {
		c.detector.SetCallbacks(cb.OnSpeechStart, cb.OnSilence)
	}
}

// Start acquires the device once. Later calls are no-ops. Acquisition
// failures are returned as *DeviceError.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCaptureClosed
	}
	if c.started {
		return nil
	}

	src, err := c.device.Open(ctx)
	if err != nil {
		derr := ClassifyDeviceError(c.device.Name(), err)
		c.log.Warnw("microphone acquisition failed", "device", c.device.Name(), "kind", derr.Kind.String(), "error", err)
		return derr
	}
	c.source = src
	c.started = true

	c.wg.Add(2)
	go c.readLoop(src)
	go c.emitLoop()
	c.log.Infow("capture started", "device", c.device.Name(), "rate", src.Format().SampleRate, "channels", src.Format().Channels)
	return nil
}

func (c *Capture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Pause emits whatever is buffered and then stops emission. The device stays
// open.
func (c *Capture) Pause() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if c.paused.Load() {
		return
	}
	c.emitBufferedLocked()
	c.paused.Store(true)
}

// Resume starts a fresh stream: stale buffered audio is discarded and the
// silence detector rearmed.
func (c *Capture) Resume() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.ring.Reset()
	if c.detector != nil {
		c.detector.Reset()
	}
	c.paused.Store(false)
}

func (c *Capture) Paused() bool {
	return c.paused.Load()
}

// Level is the current rolling input level, 0 without VAD.
func (c *Capture) Level() float64 {
	if c.detector == nil {
		return 0
	}
	return c.detector.Level()
}

func (c *Capture) Stats() map[string]interface{} {
	return map[string]interface{}{
		"started":   c.Started(),
		"paused":    c.paused.Load(),
		"emitted":   c.emitted.Load(),
		"discarded": c.discarded.Load(),
		"dropped":   c.ring.Dropped(),
	}
}

// Close releases the device and waits for the capture goroutines.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	src := c.source
	close(c.done)
	c.mu.Unlock()

	c.paused.Store(true)
	var err error
	if src != nil {
		err = src.Close()
	}
	c.wg.Wait()
	return err
}

func (c *Capture) readLoop(src Source) {
	defer c.wg.Done()

	format := src.Format()
	channels := format.Channels
	if channels <= 0 {
		channels = 1
	}
	outRate := c.cfg.SampleRate
	if outRate <= 0 {
		outRate = format.SampleRate
	}
	size := int(time.Duration(format.SampleRate*channels*2) * c.cfg.ChunkDuration / time.Second)
	size -= size % (2 * channels)
	if size <= 0 {
		size = 2 * channels
	}

	buf := make([]byte, size)
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 && !c.paused.Load() {
			pcm := Convert(append([]byte(nil), buf[:n]...), format, outRate)
			c.push(pcm, outRate)
		} else if n > 0 {
			c.discarded.Add(1)
		}
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				c.reportError(err)
			} else {
				c.log.Infow("capture source ended", "device", c.device.Name())
			}
			return
		}
	}
}

func (c *Capture) push(pcm []byte, rate int) {
	c.seq++
	chunk := audioring.Chunk{
		Seq:        c.seq,
		Data:       pcm,
		Timestamp:  time.Now(),
		SampleRate: int32(rate),
		Channels:   1,
	}
	if err := c.ring.Enqueue(chunk); err != nil {
		c.log.Warnw("dropping capture chunk", "seq", chunk.Seq, "error", err)
		return
	}
	if c.detector != nil {
		c.detector.ObservePCM(pcm)
	}
	select {
	case c.readyCh <- struct{}{}:
	default:
	}
}

func (c *Capture) emitLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case <-c.readyCh:
		}

		c.emitMu.Lock()
		if c.paused.Load() {
			c.ring.Reset()
		} else {
			c.emitBufferedLocked()
		}
		c.emitMu.Unlock()
	}
}

func (c *Capture) emitBufferedLocked() {
	c.mu.Lock()
	onChunk := c.cb.OnChunk
	c.mu.Unlock()

	for _, chunk := range c.ring.Drain() {
		if onChunk != nil {
			onChunk(chunk)
		}
		c.emitted.Add(1)
	}
}

func (c *Capture) reportError(err error) {
	c.log.Errorw("capture read failed", "device", c.device.Name(), "error", err)
	c.mu.Lock()
	onError := c.cb.OnError
	c.mu.Unlock()
	if onError != nil {
		onError(ClassifyDeviceError(c.device.Name(), err))
	}
}
