package audio

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/xpanvictor/intervox/pkg/io/wav"
)

// Format of the PCM16 samples a Source produces.
type Format struct {
	SampleRate int
	Channels   int
}

// Source is an acquired input device producing little-endian PCM16.
type Source interface {
	io.Reader
	Format() Format
	Close() error
}

// Device acquires a Source. Implementations return errors that
// ClassifyDeviceError can map.
type Device interface {
	Name() string
	Open(ctx context.Context) (Source, error)
}

// WAVDevice plays a WAV file as if it were a microphone.
type WAVDevice struct {
	Path string
	// Realtime paces reads to the audio's own clock.
	Realtime bool
	// PadSilence keeps producing silence once the file is exhausted.
	PadSilence bool
}

func (d *WAVDevice) Name() string {
	return d.Path
}

func (d *WAVDevice) Open(ctx context.Context) (Source, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format, pcm, err := wav.Decode(f)
	if err != nil {
		return nil, &DeviceError{Kind: KindUnknown, Device: d.Path, Err: err}
	}
	return &wavSource{
		format:     Format{SampleRate: format.SampleRate, Channels: format.Channels},
		data:       bytes.NewReader(pcm),
		realtime:   d.Realtime,
		padSilence: d.PadSilence,
		bytesPerS:  format.BytesPerSecond(),
		done:       make(chan struct{}),
	}, nil
}

type wavSource struct {
	format     Format
	data       *bytes.Reader
	realtime   bool
	padSilence bool
	bytesPerS  int

	closeOnce sync.Once
	done      chan struct{}
}

func (s *wavSource) Format() Format {
	return s.format
}

func (s *wavSource) Read(p []byte) (int, error) {
	select {
	case <-s.done:
		return 0, io.EOF
	default:
	}

	n, err := s.data.Read(p)
	if err == io.EOF && s.padSilence {
		for i := range p {
			p[i] = 0
		}
		n, err = len(p), nil
	}
	if n > 0 && s.realtime && s.bytesPerS > 0 {
		wait := time.Duration(n) * time.Second / time.Duration(s.bytesPerS)
		select {
		case <-time.After(wait):
		case <-s.done:
			return 0, io.EOF
		}
	}
	return n, err
}

func (s *wavSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
