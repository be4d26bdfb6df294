package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ClientSettings configures the headless interview client.
type ClientSettings struct {
	ServerURL string `mapstructure:"server_url"`
	SessionID string `mapstructure:"session_id"`
	Token     string `mapstructure:"token"`
	Debug     bool   `mapstructure:"debug"`

	Audio     ClientAudioConfig     `mapstructure:"audio"`
	Transport ClientTransportConfig `mapstructure:"transport"`
}

type ClientAudioConfig struct {
	InputFile           string        `mapstructure:"input_file"`
	OutputDir           string        `mapstructure:"output_dir"`
	SampleRate          int           `mapstructure:"sample_rate"`
	ChunkDuration       time.Duration `mapstructure:"chunk_duration"`
	VADEnabled          bool          `mapstructure:"vad_enabled"`
	VADThreshold        float64       `mapstructure:"vad_threshold"`
	SilenceDuration     time.Duration `mapstructure:"silence_duration"`
	AutoSubmitOnSilence bool          `mapstructure:"auto_submit_on_silence"`
}

type ClientTransportConfig struct {
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	Factor            float64       `mapstructure:"factor"`
	MaxDelay          time.Duration `mapstructure:"max_delay"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
}

// LoadClient reads client.yaml (or the file named by path) with INTERVOX_ env
// overrides.
func LoadClient(path string) (*ClientSettings, error) {
	v := newViper("client")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetDefault("server_url", "ws://localhost:8088/api")
	v.SetDefault("session_id", "")
	v.SetDefault("token", "")
	v.SetDefault("audio.output_dir", "./playback")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.chunk_duration", 250*time.Millisecond)
	v.SetDefault("audio.vad_enabled", true)
	v.SetDefault("audio.vad_threshold", 0.01)
	v.SetDefault("audio.silence_duration", 1500*time.Millisecond)
	v.SetDefault("audio.auto_submit_on_silence", true)
	v.SetDefault("transport.base_delay", time.Second)
	v.SetDefault("transport.factor", 2.0)
	v.SetDefault("transport.max_delay", 30*time.Second)
	v.SetDefault("transport.max_attempts", 5)
	v.SetDefault("transport.heartbeat_interval", 30*time.Second)
	v.SetDefault("transport.inactivity_timeout", 60*time.Second)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read client config: %w", err)
		}
	}

	var settings ClientSettings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client config: %w", err)
	}
	if settings.SessionID == "" {
		return nil, fmt.Errorf("client config: session_id is required")
	}
	return &settings, nil
}
