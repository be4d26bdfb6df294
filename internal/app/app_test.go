package app

import (
	"context"
	"testing"
	"time"

	"github.com/xpanvictor/intervox/internal/config"
	"github.com/xpanvictor/intervox/internal/repository/report"
	"github.com/xpanvictor/intervox/internal/repository/session"
)

func TestNewAppInMemory(t *testing.T) {
	cfg := &config.Settings{
		Assistant: config.AssistantConfig{Provider: "scripted"},
		Auth:      config.AuthConfig{RateLimit: 10},
		Redis:     config.RedisConfig{SessionTTL: time.Hour},
		Interview: config.InterviewConfig{SpeechCacheSize: 8},
		Speech:    config.SpeechConfig{WhisperURL: "http://whisper:9000", PiperURL: "http://piper:5000"},
	}
	a, err := NewApp(cfg, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(context.Background())

	if _, ok := a.Interviews.(*session.MemoryInterviewRepo); !ok {
		t.Errorf("interviews = %T", a.Interviews)
	}
	if _, ok := a.Reports.(*report.MemoryReportRepo); !ok {
		t.Errorf("reports = %T", a.Reports)
	}
	if a.Scheduler != nil || a.Executor != nil {
		t.Errorf("unconfigured services were created")
	}
	if a.Transcriber == nil || a.Speech == nil || a.Limiter == nil {
		t.Errorf("configured services missing")
	}
	if a.ServerDeps.Interviews != a.InterviewService || a.ServerDeps.WebSocket == nil {
		t.Errorf("server dependencies not wired")
	}
	if err := a.Start(context.Background()); err != nil {
		t.Errorf("start: %v", err)
	}
}

func TestNewAppRejectsUnknownProvider(t *testing.T) {
	cfg := &config.Settings{Assistant: config.AssistantConfig{Provider: "mystery"}}
	if _, err := NewApp(cfg, nil, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
