package transport

import "time"

// Config for a Channel. Zero values fall back to DefaultConfig; a negative
// MaxAttempts disables reconnecting.
type Config struct {
	// Base websocket URL, e.g. ws://localhost:8088/api
	URL       string
	SessionID string
	Token     string

	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
	MaxAttempts int

	HeartbeatInterval time.Duration
	InactivityTimeout time.Duration
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration

	// Pending control messages kept while disconnected; further sends fail
	// with ErrQueueFull.
	MaxPending int
}

func DefaultConfig() Config {
	return Config{
		URL:               "ws://localhost:8088/api",
		BaseDelay:         1 * time.Second,
		Factor:            2,
		MaxDelay:          30 * time.Second,
		MaxAttempts:       5,
		HeartbeatInterval: 30 * time.Second,
		InactivityTimeout: 60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		MaxPending:        512,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.URL == "" {
		c.URL = d.URL
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.Factor <= 0 {
		c.Factor = d.Factor
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	switch {
	case c.MaxAttempts == 0:
		c.MaxAttempts = d.MaxAttempts
	case c.MaxAttempts < 0:
		c.MaxAttempts = 0
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.InactivityTimeout <= 0 {
		c.InactivityTimeout = d.InactivityTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.MaxPending <= 0 {
		c.MaxPending = d.MaxPending
	}
	return c
}
