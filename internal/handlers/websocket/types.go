package websocket

import (
	"time"

	"github.com/xpanvictor/intervox/internal/domains/interview"
)

// HandlerConfig tunes the interview websocket endpoint.
type HandlerConfig struct {
	HeartbeatInterval time.Duration
	InactivityTimeout time.Duration
	WriteTimeout      time.Duration
	// empty allows every origin
	AllowedOrigins []string
	Conductor      interview.ConductorConfig
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = 300 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	return c
}

// SessionStats describes one live connection.
type SessionStats struct {
	SessionID   string                    `json:"session_id"`
	UserID      string                    `json:"user_id"`
	InterviewID string                    `json:"interview_id"`
	ConnectedAt time.Time                 `json:"connected_at"`
	LastActive  time.Time                 `json:"last_active"`
	IsActive    bool                      `json:"is_active"`
	Conductor   *interview.ConductorStats `json:"conductor,omitempty"`
}

// ConnectionStats is served by GET /ws/stats.
type ConnectionStats struct {
	ActiveSessions int            `json:"active_sessions"`
	SessionTimeout string         `json:"session_timeout"`
	Sessions       []SessionStats `json:"sessions"`
}
