package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	audioring "github.com/xpanvictor/intervox/pkg/io/stt/audioRing"
	"github.com/xpanvictor/intervox/pkg/io/wav"
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeSource hands out exactly the byte slices pushed into it.
type fakeSource struct {
	frames chan []byte
	once   sync.Once
	done   chan struct{}
	rest   []byte
}

func newFakeSource() *fakeSource {
	return &fakeSource{frames: make(chan []byte, 16), done: make(chan struct{})}
}

func (s *fakeSource) Read(p []byte) (int, error) {
	if len(s.rest) == 0 {
		select {
		case f := <-s.frames:
			s.rest = f
		case <-s.done:
			return 0, io.EOF
		}
	}
	n := copy(p, s.rest)
	s.rest = s.rest[n:]
	return n, nil
}

func (s *fakeSource) Format() Format { return Format{SampleRate: 16000, Channels: 1} }

func (s *fakeSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

type fakeDevice struct {
	mu     sync.Mutex
	opens  int
	source *fakeSource
	err    error
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Open(context.Context) (Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.err != nil {
		return nil, d.err
	}
	return d.source, nil
}

// 10ms of 16kHz mono PCM16
func frame(v byte) []byte {
	b := make([]byte, 320)
	for i := range b {
		b[i] = v
	}
	return b
}

func TestClassifyDeviceError(t *testing.T) {
	cases := []struct {
		err    error
		kind   DeviceErrorKind
		target error
	}{
		{fmt.Errorf("open: %w", os.ErrPermission), KindPermissionDenied, ErrPermissionDenied},
		{fmt.Errorf("open: %w", os.ErrNotExist), KindNotFound, ErrDeviceNotFound},
		{syscall.ENODEV, KindNotFound, ErrDeviceNotFound},
		{fmt.Errorf("ioctl: %w", syscall.EBUSY), KindBusy, ErrDeviceBusy},
	}
	for _, tc := range cases {
		got := ClassifyDeviceError("mic", tc.err)
		if got.Kind != tc.kind {
			t.Errorf("%v: kind = %s, want %s", tc.err, got.Kind, tc.kind)
		}
		if !errors.Is(got, tc.target) {
			t.Errorf("%v: errors.Is(%v) = false", tc.err, tc.target)
		}
	}

	unknown := ClassifyDeviceError("mic", errors.New("driver exploded"))
	if unknown.Kind != KindUnknown || errors.Is(unknown, ErrDeviceBusy) {
		t.Errorf("unexpected classification %+v", unknown)
	}
	if ClassifyDeviceError("mic", nil) != nil {
		t.Error("nil error should classify to nil")
	}
}

func TestCaptureStartFailureIsClassified(t *testing.T) {
	c := NewCapture(&WAVDevice{Path: filepath.Join(t.TempDir(), "missing.wav")}, CaptureConfig{}, nil)
	err := c.Start(context.Background())

	var derr *DeviceError
	if !errors.As(err, &derr) || derr.Kind != KindNotFound {
		t.Fatalf("Start error = %v, want not found device error", err)
	}
	if c.Started() {
		t.Error("capture should not be started")
	}
}

func TestCaptureStartsPausedAndGates(t *testing.T) {
	src := newFakeSource()
	dev := &fakeDevice{source: src}
	c := NewCapture(dev, CaptureConfig{ChunkDuration: 10 * time.Millisecond}, nil)

	var mu sync.Mutex
	var got []audioring.Chunk
	c.SetCallbacks(CaptureCallbacks{OnChunk: func(ch audioring.Chunk) {
		mu.Lock()
		got = append(got, ch)
		mu.Unlock()
	}})
	received := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(got)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if dev.opens != 1 {
		t.Fatalf("device opened %d times, want 1", dev.opens)
	}
	if !c.Paused() {
		t.Fatal("capture should start paused")
	}

	src.frames <- frame(1)
	eventually(t, "paused frame discarded", func() bool {
		return c.Stats()["discarded"].(uint64) == 1
	})

	c.Resume()
	src.frames <- frame(2)
	eventually(t, "chunk emitted", func() bool { return received() == 1 })

	c.Pause()
	src.frames <- frame(3)
	eventually(t, "second paused frame discarded", func() bool {
		return c.Stats()["discarded"].(uint64) == 2
	})
	if n := received(); n != 1 {
		t.Fatalf("received %d chunks after pause, want 1", n)
	}

	c.Resume()
	src.frames <- frame(4)
	eventually(t, "chunk after resume", func() bool { return received() == 2 })

	mu.Lock()
	defer mu.Unlock()
	if got[0].Data[0] != 2 || got[1].Data[0] != 4 {
		t.Errorf("unexpected chunk payloads %d, %d", got[0].Data[0], got[1].Data[0])
	}
	if got[1].Seq <= got[0].Seq {
		t.Errorf("sequence not increasing: %d then %d", got[0].Seq, got[1].Seq)
	}
	if got[0].SampleRate != 16000 || got[0].Channels != 1 {
		t.Errorf("chunk format = %d/%d", got[0].SampleRate, got[0].Channels)
	}
}

// blockingSink plays until released or cancelled.
type blockingSink struct {
	mu      sync.Mutex
	started []string
	release chan struct{}
}

func (s *blockingSink) Play(ctx context.Context, seg Segment) error {
	s.mu.Lock()
	s.started = append(s.started, seg.ID)
	s.mu.Unlock()
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *blockingSink) Started() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.started...)
}

func TestPlayerClearDropsQueuedSegments(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	p := NewPlayer(sink, nil)

	var mu sync.Mutex
	var ended []string
	drained := 0
	p.SetCallbacks(PlayerCallbacks{
		OnEnd: func(seg Segment, _ error) {
			mu.Lock()
			ended = append(ended, seg.ID)
			mu.Unlock()
		},
		OnDrained: func() {
			mu.Lock()
			drained++
			mu.Unlock()
		},
	})
	p.Start()
	defer p.Close()

	audio := wav.Encode(make([]byte, 320), wav.Mono16(16000))
	p.Enqueue(Segment{ID: "a", Audio: audio})
	p.Enqueue(Segment{ID: "b", Audio: audio})
	p.Enqueue(Segment{ID: "c", Audio: audio})
	eventually(t, "first segment playing", func() bool { return len(sink.Started()) == 1 })

	if n := p.Clear(); n != 3 {
		t.Errorf("Clear dropped %d segments, want 3", n)
	}
	if !p.Idle() {
		t.Error("player should be idle after Clear")
	}

	p.Enqueue(Segment{ID: "d", Audio: audio})
	eventually(t, "next segment playing", func() bool { return len(sink.Started()) == 2 })
	close(sink.release)
	eventually(t, "drained", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return drained == 1
	})

	if got := sink.Started(); got[0] != "a" || got[1] != "d" {
		t.Errorf("started %v, want [a d]", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(ended) != 1 || ended[0] != "d" {
		t.Errorf("ended %v, want [d]", ended)
	}
	if p.Played() != 1 {
		t.Errorf("played = %d, want 1", p.Played())
	}
}

type recordingSink struct {
	mu  sync.Mutex
	ids []string
}

func (s *recordingSink) Play(_ context.Context, seg Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, seg.ID)
	return nil
}

func TestPlayerFIFO(t *testing.T) {
	sink := &recordingSink{}
	p := NewPlayer(sink, nil)

	done := make(chan struct{}, 4)
	var starts []string
	p.SetCallbacks(PlayerCallbacks{
		OnStart:   func(seg Segment) { starts = append(starts, seg.ID) },
		OnDrained: func() { done <- struct{}{} },
	})

	audio := wav.Encode(make([]byte, 32), wav.Mono16(16000))
	for _, id := range []string{"1", "2", "3"} {
		p.Enqueue(Segment{ID: id, Audio: audio})
	}
	p.Start()
	defer p.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("queue never drained")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if fmt.Sprint(sink.ids) != "[1 2 3]" || fmt.Sprint(starts) != "[1 2 3]" {
		t.Errorf("played %v, started %v", sink.ids, starts)
	}
}

func TestPlayerTextOnlySegmentWaitsDuration(t *testing.T) {
	p := NewPlayer(&recordingSink{}, nil)
	done := make(chan struct{})
	p.SetCallbacks(PlayerCallbacks{OnDrained: func() { close(done) }})
	p.Start()
	defer p.Close()

	begin := time.Now()
	p.Enqueue(Segment{ID: "q", Text: "hello", Duration: 30 * time.Millisecond})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("text-only segment never finished")
	}
	if elapsed := time.Since(begin); elapsed < 30*time.Millisecond {
		t.Errorf("finished after %s, want at least 30ms", elapsed)
	}
}

func TestEstimateDuration(t *testing.T) {
	audio := wav.Encode(make([]byte, 16000), wav.Mono16(16000))
	if d := EstimateDuration(Segment{Audio: audio, Text: "ignored"}); d != 500*time.Millisecond {
		t.Errorf("wav duration = %s, want 500ms", d)
	}
}

func TestPCMConversion(t *testing.T) {
	mono := Downmix([]int16{100, 200, -50, 50}, 2)
	if len(mono) != 2 || mono[0] != 150 || mono[1] != 0 {
		t.Errorf("Downmix = %v", mono)
	}

	down := Downsample([]int16{3, 3, 3, 6, 6, 6}, 48000, 16000)
	if len(down) != 2 || down[0] != 3 || down[1] != 6 {
		t.Errorf("Downsample = %v", down)
	}

	raw := EncodePCM16([]int16{10, 20, 30, 40})
	out := DecodePCM16(Convert(raw, Format{SampleRate: 32000, Channels: 2}, 16000))
	if len(out) != 1 || out[0] != 25 {
		t.Errorf("Convert = %v, want [25]", out)
	}
}

func TestWAVDeviceReadsPCM(t *testing.T) {
	pcm := EncodePCM16([]int16{1, -1, 2, -2})
	path := filepath.Join(t.TempDir(), "mic.wav")
	if err := os.WriteFile(path, wav.Encode(pcm, wav.Mono16(8000)), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := (&WAVDevice{Path: path}).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if f := src.Format(); f.SampleRate != 8000 || f.Channels != 1 {
		t.Errorf("format = %+v", f)
	}
	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("read %v, want %v", got, pcm)
	}
}

func TestFileSinkWritesSegments(t *testing.T) {
	dir := t.TempDir()
	sink := &FileSink{Dir: dir}
	audio := wav.Encode(make([]byte, 64), wav.Mono16(16000))

	if err := sink.Play(context.Background(), Segment{ID: "q1", Audio: audio}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "001_q1.wav"))
	if err != nil {
		t.Fatalf("segment file: %v", err)
	}
	if len(got) != len(audio) {
		t.Errorf("wrote %d bytes, want %d", len(got), len(audio))
	}
}
