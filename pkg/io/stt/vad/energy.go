package vad

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	audioring "github.com/xpanvictor/intervox/pkg/io/stt/audioRing"
)

var ErrClosed = errors.New("vad: closed")

// CalculateRMSEnergy returns the RMS of little-endian PCM16, normalized to 0-1.
func CalculateRMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}
	return math.Sqrt(sum / float64(samples))
}

// EnergyVAD is a stateless per-chunk detector.
type EnergyVAD struct {
	config VADConfig
	mu     sync.Mutex
	closed bool
}

func NewEnergyVAD(config VADConfig) *EnergyVAD {
	return &EnergyVAD{config: config}
}

// DetectVoice implements VAD.
func (e *EnergyVAD) DetectVoice(ctx context.Context, chunk audioring.Chunk) (VADResult, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return VADResult{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return VADResult{}, err
	}

	energy := CalculateRMSEnergy(chunk.Data)
	if e.config.Threshold <= 0 {
		return VADResult{HasVoice: energy > 0, Energy: energy, Confidence: 1}, nil
	}
	confidence := math.Min(energy/e.config.Threshold, 1)
	return VADResult{
		HasVoice:   energy > e.config.Threshold,
		Energy:     energy,
		Confidence: confidence,
	}, nil
}

// Close implements VAD.
func (e *EnergyVAD) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Event is what a Detector observed on a reading.
type Event int

const (
	EventNone Event = iota
	EventSpeechStart
	EventSilence
)

// Detector tracks a rolling energy level across readings and reports speech
// start and sustained silence. Silence is measured from the last loud reading,
// or from Reset if none was seen. It fires at most once per Reset.
type Detector struct {
	config VADConfig
	now    func() time.Time

	mu       sync.Mutex
	window   []float64
	next     int
	filled   int
	speaking bool
	heard    bool
	fired    bool
	lastLoud time.Time

	onSpeechStart func()
	onSilence     func()
}

type DetectorOption func(*Detector)

// WithClock injects the time source.
func WithClock(now func() time.Time) DetectorOption {
	return func(d *Detector) { d.now = now }
}

func NewDetector(config VADConfig, opts ...DetectorOption) *Detector {
	if config.Window <= 0 {
		config.Window = 1
	}
	d := &Detector{
		config: config,
		now:    time.Now,
		window: make([]float64, config.Window),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.lastLoud = d.now()
	return d
}

// SetCallbacks registers listeners. Either may be nil. Callbacks run on the
// goroutine calling Observe, after the detector's lock is released.
func (d *Detector) SetCallbacks(onSpeechStart, onSilence func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSpeechStart = onSpeechStart
	d.onSilence = onSilence
}

// Reset starts a new measurement, typically when recording starts.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.window {
		d.window[i] = 0
	}
	d.next, d.filled = 0, 0
	d.speaking, d.heard, d.fired = false, false, false
	d.lastLoud = d.now()
}

// ObservePCM feeds one chunk of PCM16 audio.
func (d *Detector) ObservePCM(pcm []byte) Event {
	return d.Observe(CalculateRMSEnergy(pcm))
}

// Observe feeds one energy reading.
func (d *Detector) Observe(level float64) Event {
	d.mu.Lock()
	now := d.now()

	d.window[d.next] = level
	d.next = (d.next + 1) % len(d.window)
	if d.filled < len(d.window) {
		d.filled++
	}
	var sum float64
	for i := 0; i < d.filled; i++ {
		sum += d.window[i]
	}
	avg := sum / float64(d.filled)

	ev := EventNone
	var cb func()
	switch {
	case avg > d.config.Threshold:
		d.lastLoud = now
		d.heard = true
		if !d.speaking {
			d.speaking = true
			ev, cb = EventSpeechStart, d.onSpeechStart
		}
	case !d.fired && now.Sub(d.lastLoud) > d.config.SilenceDuration &&
		(d.heard || !d.config.RequireSpeech):
		d.fired = true
		d.speaking = false
		ev, cb = EventSilence, d.onSilence
	}
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
	return ev
}

// Level returns the current rolling average.
func (d *Detector) Level() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.filled == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < d.filled; i++ {
		sum += d.window[i]
	}
	return sum / float64(d.filled)
}

// Speaking reports whether the rolling level is currently above threshold.
func (d *Detector) Speaking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speaking
}
