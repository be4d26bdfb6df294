package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/io/stt"
	"github.com/xpanvictor/intervox/pkg/io/wav"
)

const initialPrompt = "This is a technical job interview about software engineering."

// TranscriptionResponse represents the response from Whisper STT service
type TranscriptionResponse struct {
	Text     string                 `json:"text"`
	Language string                 `json:"language"`
	Segments []TranscriptionSegment `json:"segments,omitempty"`
}

// TranscriptionSegment represents a timed segment of transcription
type TranscriptionSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	ID    int     `json:"id"`
}

// WhisperClient talks to a whisper-asr-webservice instance.
type WhisperClient struct {
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *Logger.Logger
}

func NewWhisperClient(baseURL, language string, logger *Logger.Logger) *WhisperClient {
	if language == "" {
		language = "en"
	}
	return &WhisperClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: Logger.OrNop(logger).Named("whisper"),
	}
}

// Transcribe implements stt.Transcriber.
func (w *WhisperClient) Transcribe(ctx context.Context, in stt.AudioInput) (*stt.STTOutput, error) {
	if len(in.PCM) == 0 {
		return nil, fmt.Errorf("no audio provided")
	}
	rate := in.SampleRate
	if rate <= 0 {
		rate = 16000
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio_file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wav.Encode(in.PCM, wav.Mono16(rate))); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	q := url.Values{}
	q.Set("encode", "true")
	q.Set("task", "transcribe")
	q.Set("language", w.language)
	q.Set("output", "json")
	q.Set("initial_prompt", initialPrompt)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/asr?"+q.Encode(), &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		w.logger.Errorf("Whisper service error (status %d): %s", resp.StatusCode, string(responseBody))
		return nil, fmt.Errorf("whisper service returned status %d", resp.StatusCode)
	}

	out := &stt.STTOutput{
		ID:             in.ID,
		STTGeneratedAt: time.Now(),
		AudioDuration:  in.Duration(),
		Language:       w.language,
	}

	var transcription TranscriptionResponse
	if err := json.Unmarshal(responseBody, &transcription); err != nil {
		// some deployments answer with plain text
		out.Content = strings.TrimSpace(string(responseBody))
		w.logger.Debugf("treating whisper response as plain text (%d bytes)", len(responseBody))
		return out, nil
	}
	out.Content = strings.TrimSpace(transcription.Text)
	if transcription.Language != "" {
		out.Language = transcription.Language
	}
	w.logger.Debugf("Whisper transcription: %s (language: %s)", out.Content, out.Language)
	return out, nil
}
