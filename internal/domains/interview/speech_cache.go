package interview

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/io/tts"
)

const defaultSpeechCacheSize = 50

// SpeechCache memoizes synthesized WAV audio by text. Greetings and fallback
// questions repeat across interviews, so hits are common.
type SpeechCache struct {
	synth tts.Synthesizer
	cache *lru.Cache[string, []byte]
	log   *Logger.Logger
}

func NewSpeechCache(synth tts.Synthesizer, size int, log *Logger.Logger) (*SpeechCache, error) {
	if size <= 0 {
		size = defaultSpeechCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech cache: %w", err)
	}
	return &SpeechCache{synth: synth, cache: cache, log: Logger.OrNop(log).Named("speech")}, nil
}

// Speak returns WAV audio for text, synthesizing on a miss.
func (c *SpeechCache) Speak(ctx context.Context, text string) ([]byte, error) {
	key := strings.TrimSpace(text)
	if key == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	if audio, ok := c.cache.Get(key); ok {
		return audio, nil
	}
	if c.synth == nil {
		return nil, fmt.Errorf("no synthesizer configured")
	}
	audio, err := c.synth.Synthesize(ctx, key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, audio)
	c.log.Debugf("synthesized %d bytes, cache size %d", len(audio), c.cache.Len())
	return audio, nil
}

func (c *SpeechCache) Len() int {
	return c.cache.Len()
}
