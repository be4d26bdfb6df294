package tts

import (
	"strings"
	"time"

	"github.com/xpanvictor/intervox/pkg/io/wav"
)

const (
	wordsPerMinute     = 150
	minSpeechDuration  = time.Second
	perWordSpeechDelay = time.Minute / wordsPerMinute
)

// EstimateSpeech guesses how long text takes to read aloud.
func EstimateSpeech(text string) time.Duration {
	d := time.Duration(len(strings.Fields(text))) * perWordSpeechDelay
	if d < minSpeechDuration {
		return minSpeechDuration
	}
	return d
}

// Duration is the playback length of audio when it is a readable WAV file,
// and the spoken estimate of text otherwise.
func Duration(audio []byte, text string) time.Duration {
	if len(audio) > 0 {
		if f, pcm, err := wav.DecodeBytes(audio); err == nil {
			return f.Duration(len(pcm))
		}
	}
	return EstimateSpeech(text)
}
