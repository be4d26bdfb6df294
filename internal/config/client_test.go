package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadClientDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "client.yaml", "session_id: abc\ntoken: tok\n")

	s, err := LoadClient(p)
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if s.SessionID != "abc" || s.Token != "tok" {
		t.Errorf("unexpected identity: %+v", s)
	}
	if s.Transport.MaxAttempts != 5 {
		t.Errorf("expected 5 max attempts, got %d", s.Transport.MaxAttempts)
	}
	if s.Transport.BaseDelay != time.Second {
		t.Errorf("expected 1s base delay, got %v", s.Transport.BaseDelay)
	}
	if s.Audio.SilenceDuration != 1500*time.Millisecond {
		t.Errorf("expected 1.5s silence, got %v", s.Audio.SilenceDuration)
	}
}

func TestLoadClientOverrides(t *testing.T) {
	body := `
session_id: s1
transport:
  max_attempts: 3
  base_delay: 250ms
audio:
  vad_enabled: false
`
	p := writeFile(t, t.TempDir(), "client.yaml", body)

	s, err := LoadClient(p)
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if s.Transport.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", s.Transport.MaxAttempts)
	}
	if s.Transport.BaseDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", s.Transport.BaseDelay)
	}
	if s.Audio.VADEnabled {
		t.Error("expected VAD disabled")
	}
}

func TestLoadClientRequiresSession(t *testing.T) {
	p := writeFile(t, t.TempDir(), "client.yaml", "token: tok\n")
	if _, err := LoadClient(p); err == nil {
		t.Fatal("expected error without session_id")
	}
}

func TestLoadClientSessionFromEnv(t *testing.T) {
	t.Setenv("INTERVOX_SESSION_ID", "from-env")
	t.Setenv("INTERVOX_TOKEN", "env-token")
	p := writeFile(t, t.TempDir(), "client.yaml", "debug: true\n")

	s, err := LoadClient(p)
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if s.SessionID != "from-env" || s.Token != "env-token" {
		t.Errorf("env overrides not applied: %+v", s)
	}
}
