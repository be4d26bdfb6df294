package vad

import (
	"context"
	"time"

	audioring "github.com/xpanvictor/intervox/pkg/io/stt/audioRing"
)

// VADResult represents the result of voice activity detection
type VADResult struct {
	HasVoice   bool    `json:"hasVoice"`
	Energy     float64 `json:"energy"`
	Confidence float64 `json:"confidence"`
}

// VAD classifies a single chunk of audio.
type VAD interface {
	// DetectVoice analyzes audio data and returns VAD result
	DetectVoice(ctx context.Context, chunk audioring.Chunk) (VADResult, error)

	// Close releases any resources
	Close() error
}

// VADConfig contains configuration for VAD
type VADConfig struct {
	SampleRate int32 `json:"sampleRate"`
	// Threshold on normalized RMS energy (0.0-1.0)
	Threshold float64 `json:"threshold"`
	// How long the level must stay below threshold before silence is declared
	SilenceDuration time.Duration `json:"silenceDuration"`
	// Number of readings averaged into the rolling level
	Window int `json:"window"`
	// When set, silence is only reported after speech was heard at least once
	RequireSpeech bool `json:"requireSpeech"`
}

func DefaultVADConfig() VADConfig {
	return VADConfig{
		SampleRate:      16000,
		Threshold:       0.01,
		SilenceDuration: 1500 * time.Millisecond,
		Window:          3,
	}
}
