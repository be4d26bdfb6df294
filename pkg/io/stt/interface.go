package stt

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AudioInput is one utterance of mono PCM16.
type AudioInput struct {
	PCM        []byte
	SampleRate int
	StartedAt  time.Time
	ID         uuid.UUID
}

func (in AudioInput) Duration() time.Duration {
	if in.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(in.PCM)/2) * time.Second / time.Duration(in.SampleRate)
}

type STTOutput struct {
	Content string
	// uuid from input
	ID             uuid.UUID
	STTGeneratedAt time.Time
	AudioDuration  time.Duration
	Language       string
}

type Transcriber interface {
	Transcribe(ctx context.Context, in AudioInput) (*STTOutput, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, in AudioInput) (*STTOutput, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, in AudioInput) (*STTOutput, error) {
	return f(ctx, in)
}
