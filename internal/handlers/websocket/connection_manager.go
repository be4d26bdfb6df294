package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

const inactiveReason = "Connection closed due to inactivity"

// ConnectionManager tracks live sessions and closes idle ones.
type ConnectionManager struct {
	logger         *Logger.Logger
	sessions       map[uuid.UUID]*Session
	mutex          sync.RWMutex
	cleanupTicker  *time.Ticker
	stopCleanup    chan struct{}
	stopOnce       sync.Once
	sessionTimeout time.Duration
}

// NewConnectionManager creates a new connection manager. Sessions with no
// inbound traffic for sessionTimeout are closed with code 4009.
func NewConnectionManager(logger *Logger.Logger, sessionTimeout time.Duration) *ConnectionManager {
	cm := &ConnectionManager{
		logger:         Logger.OrNop(logger).Named("connections"),
		sessions:       make(map[uuid.UUID]*Session),
		stopCleanup:    make(chan struct{}),
		sessionTimeout: sessionTimeout,
	}

	cm.startCleanupRoutine(cleanupInterval(sessionTimeout))

	return cm
}

func cleanupInterval(timeout time.Duration) time.Duration {
	interval := timeout / 10
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > 30*time.Second {
		interval = 30 * time.Second
	}
	return interval
}

// RegisterConnection registers a new session
func (cm *ConnectionManager) RegisterConnection(session *Session) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.sessions[session.SessionID] = session
	cm.logger.Infof("registered session %s for interview %s (user %s)",
		session.SessionID, session.InterviewID, session.UserID)
}

// UnregisterConnection removes a session and closes it normally if it is
// still open.
func (cm *ConnectionManager) UnregisterConnection(sessionID uuid.UUID) {
	cm.mutex.Lock()
	session, exists := cm.sessions[sessionID]
	delete(cm.sessions, sessionID)
	cm.mutex.Unlock()

	if exists {
		cm.logger.Infof("unregistering session %s", sessionID)
		session.Close(protocol.CloseNormal, "")
	}
}

// GetSession retrieves a session by id
func (cm *ConnectionManager) GetSession(sessionID uuid.UUID) (*Session, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	session, exists := cm.sessions[sessionID]
	return session, exists
}

// GetSessionCount returns the number of active sessions
func (cm *ConnectionManager) GetSessionCount() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	return len(cm.sessions)
}

func (cm *ConnectionManager) startCleanupRoutine(interval time.Duration) {
	cm.cleanupTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-cm.cleanupTicker.C:
				cm.cleanupExpiredSessions()
			case <-cm.stopCleanup:
				cm.cleanupTicker.Stop()
				return
			}
		}
	}()
}

func (cm *ConnectionManager) cleanupExpiredSessions() {
	cm.mutex.Lock()
	expired := make([]*Session, 0)
	for id, session := range cm.sessions {
		if session.IsExpired(cm.sessionTimeout) {
			expired = append(expired, session)
			delete(cm.sessions, id)
		}
	}
	cm.mutex.Unlock()

	for _, session := range expired {
		cm.logger.Infof("closing inactive session %s", session.SessionID)
		session.Close(protocol.CloseInactive, inactiveReason)
	}

	if len(expired) > 0 {
		cm.logger.Infof("cleaned up %d inactive sessions", len(expired))
	}
}

// Close shuts down the connection manager
func (cm *ConnectionManager) Close() error {
	cm.stopOnce.Do(func() { close(cm.stopCleanup) })

	cm.mutex.Lock()
	sessions := cm.sessions
	cm.sessions = make(map[uuid.UUID]*Session)
	cm.mutex.Unlock()

	for _, session := range sessions {
		session.Close(protocol.CloseNormal, "server shutting down")
	}

	cm.logger.Infof("connection manager closed")
	return nil
}

// GetStats returns connection manager statistics
func (cm *ConnectionManager) GetStats() ConnectionStats {
	cm.mutex.RLock()
	sessions := make([]*Session, 0, len(cm.sessions))
	for _, s := range cm.sessions {
		sessions = append(sessions, s)
	}
	timeout := cm.sessionTimeout
	cm.mutex.RUnlock()

	stats := ConnectionStats{
		ActiveSessions: len(sessions),
		SessionTimeout: timeout.String(),
		Sessions:       make([]SessionStats, 0, len(sessions)),
	}
	for _, s := range sessions {
		stats.Sessions = append(stats.Sessions, s.stats())
	}
	return stats
}
