package websocket

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

var errSessionClosed = errors.New("session not active")

// Session is one websocket connection bound to one interview. It is the
// conductor's Emitter.
type Session struct {
	SessionID   uuid.UUID
	UserID      string
	InterviewID string
	Conn        *websocket.Conn

	conductor    *interview.Conductor
	writeTimeout time.Duration

	// State
	ConnectedAt time.Time
	lastActive  time.Time
	isActive    bool
	mutex       sync.RWMutex
	writeMu     sync.Mutex
	closeOnce   sync.Once
}

// NewSession creates a new WebSocket session
func NewSession(userID, interviewID string, conn *websocket.Conn, writeTimeout time.Duration) *Session {
	now := time.Now()
	return &Session{
		SessionID:    uuid.New(),
		UserID:       userID,
		InterviewID:  interviewID,
		Conn:         conn,
		writeTimeout: writeTimeout,
		ConnectedAt:  now,
		lastActive:   now,
		isActive:     true,
	}
}

// Emit implements interview.Emitter
func (s *Session) Emit(msg protocol.Message) error {
	if !s.IsAlive() {
		return errSessionClosed
	}
	if msg.SessionID == "" {
		msg.SessionID = s.InterviewID
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.writeTimeout > 0 {
		_ = s.Conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.Conn.WriteMessage(websocket.TextMessage, data)
}

// SendError sends an error message to the client
func (s *Session) SendError(code, message string) error {
	return s.Emit(protocol.ErrorMessage(code, message))
}

// Close implements interview.Emitter. Only the first call sends a close
// frame.
func (s *Session) Close(code int, reason string) {
	s.closeOnce.Do(func() {
		s.mutex.Lock()
		s.isActive = false
		s.mutex.Unlock()

		frame := websocket.FormatCloseMessage(code, reason)
		_ = s.Conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
		_ = s.Conn.Close()
	})
}

// Touch updates the last activity timestamp
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

// IsExpired checks if the session has expired based on inactivity
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return time.Since(s.lastActive) > timeout
}

// IsAlive checks if the session is active
func (s *Session) IsAlive() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isActive
}

// LastActive returns the last activity timestamp
func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) setConductor(c *interview.Conductor) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.conductor = c
}

func (s *Session) stats() SessionStats {
	s.mutex.RLock()
	st := SessionStats{
		SessionID:   s.SessionID.String(),
		UserID:      s.UserID,
		InterviewID: s.InterviewID,
		ConnectedAt: s.ConnectedAt,
		LastActive:  s.lastActive,
		IsActive:    s.isActive,
	}
	c := s.conductor
	s.mutex.RUnlock()
	if c != nil {
		cs := c.Stats()
		st.Conductor = &cs
	}
	return st
}
