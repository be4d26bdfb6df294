package piper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxAudioBytes = 32 << 20

type Piper struct {
	BaseURL string        // e.g. "http://tts:5000"
	Client  *http.Client  // inject; default if nil
	Voice   string        // default voice (override per-call)
	Timeout time.Duration // request timeout
}

func New(baseURL, voice string) *Piper {
	return &Piper{BaseURL: strings.TrimRight(baseURL, "/"), Voice: voice}
}

// DoTTS requests speech for text. The caller must close the returned body.
func (p *Piper) DoTTS(ctx context.Context, text string, optVoice string) (io.ReadCloser, string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("empty text")
	}
	voice := p.Voice
	if optVoice != "" {
		voice = optVoice
	}

	// GET /api/text-to-speech?text=...&voice=... answers with a WAV body
	u, err := url.Parse(p.BaseURL + "/api/text-to-speech")
	if err != nil {
		return nil, "", err
	}
	q := u.Query()
	q.Set("text", text)
	if voice != "" {
		q.Set("voice", voice)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "audio/wav")

	hc := p.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("tts http request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, "", fmt.Errorf("tts http %d: %s (dur=%s)", resp.StatusCode, string(b), time.Since(start))
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// Synthesize implements tts.Synthesizer.
func (p *Piper) Synthesize(ctx context.Context, text string) ([]byte, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, _, err := p.DoTTS(ctx, text, "")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	audio, err := io.ReadAll(io.LimitReader(body, maxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("tts read failed: %w", err)
	}
	if len(audio) > maxAudioBytes {
		return nil, fmt.Errorf("tts response exceeds %d bytes", maxAudioBytes)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts returned no audio")
	}
	return audio, nil
}
