package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/xpanvictor/intervox/pkg/io/wav"
)

// DiscardSink finishes every segment immediately.
type DiscardSink struct{}

func (DiscardSink) Play(ctx context.Context, _ Segment) error {
	return ctx.Err()
}

// FileSink writes each segment to Dir as a numbered WAV file. With Realtime
// set it also waits out the audio's duration, standing in for a speaker.
type FileSink struct {
	Dir      string
	Realtime bool

	count atomic.Uint64
}

func (s *FileSink) Play(ctx context.Context, seg Segment) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	n := s.count.Add(1)
	name := fmt.Sprintf("%03d.wav", n)
	if seg.ID != "" {
		name = fmt.Sprintf("%03d_%s.wav", n, filepath.Base(seg.ID))
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), seg.Audio, 0o644); err != nil {
		return err
	}
	if !s.Realtime {
		return nil
	}

	d := seg.Duration
	if f, pcm, err := wav.DecodeBytes(seg.Audio); err == nil {
		d = f.Duration(len(pcm))
	}
	return wait(ctx, d)
}
