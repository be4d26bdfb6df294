package websocket

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/intervox/internal/domains/auth"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/io/stt"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

// WebSocketHandler serves the live voice interview endpoint
type WebSocketHandler struct {
	logger            *Logger.Logger
	interviews        *interview.Service
	authService       auth.AuthService
	transcriber       stt.Transcriber
	speech            *interview.SpeechCache
	cfg               HandlerConfig
	connectionManager *ConnectionManager
	upgrader          websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	logger *Logger.Logger,
	interviews *interview.Service,
	authService auth.AuthService,
	transcriber stt.Transcriber,
	speech *interview.SpeechCache,
	cfg HandlerConfig,
) *WebSocketHandler {
	logger = Logger.OrNop(logger).Named("ws")
	cfg = cfg.withDefaults()
	return &WebSocketHandler{
		logger:            logger,
		interviews:        interviews,
		authService:       authService,
		transcriber:       transcriber,
		speech:            speech,
		cfg:               cfg,
		connectionManager: NewConnectionManager(logger, cfg.InactivityTimeout),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router gin.IRouter) {
	ws := router.Group("/ws")
	{
		ws.GET("/interview/:id", h.HandleInterviewWebSocket)
		ws.GET("/stats", h.HandleStats)
	}
}

// HandleInterviewWebSocket runs one live interview connection
// @Summary Live interview websocket
// @Description Upgrades to a websocket carrying JSON control messages and binary PCM16 audio. Closes with 4001 on auth failure and 4004 for unknown interviews.
// @Tags WebSocket
// @Param id path string true "Interview ID"
// @Param token query string true "Access token"
// @Success 101 "Switching protocols"
// @Router /ws/interview/{id} [get]
func (h *WebSocketHandler) HandleInterviewWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}

	interviewID := c.Param("id")
	claims, err := h.authService.ValidateToken(c.Request.Context(), requestToken(c))
	if err != nil {
		h.logger.Infof("rejecting websocket for interview %s: %v", interviewID, err)
		closeConn(conn, protocol.CloseUnauthorized, "Unauthorized")
		return
	}

	if _, err := h.interviews.GetOwned(c.Request.Context(), interviewID, claims.UserID); err != nil {
		switch {
		case errors.Is(err, interview.ErrNotFound):
			closeConn(conn, protocol.CloseSessionNotFound, "Interview not found")
		case errors.Is(err, interview.ErrForbidden):
			closeConn(conn, protocol.CloseUnauthorized, "Unauthorized")
		default:
			h.logger.Errorf("loading interview %s: %v", interviewID, err)
			closeConn(conn, websocket.CloseInternalServerErr, "Internal server error")
		}
		return
	}

	session := NewSession(claims.UserID, interviewID, conn, h.cfg.WriteTimeout)
	h.connectionManager.RegisterConnection(session)
	defer h.connectionManager.UnregisterConnection(session.SessionID)

	h.handleConnection(session)
}

// HandleStats provides connection statistics
// @Summary Websocket connection statistics
// @Tags WebSocket
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /ws/stats [get]
func (h *WebSocketHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   h.connectionManager.GetStats(),
	})
}

// handleConnection runs the read loop until the client goes away.
func (h *WebSocketHandler) handleConnection(session *Session) {
	// answer processing outlives a single frame but not the connection
	ctx, cancel := context.WithCancel(context.Background())
	conductor := interview.NewConductor(
		session.InterviewID,
		h.interviews,
		h.transcriber,
		h.speech,
		session,
		h.cfg.Conductor,
		h.logger,
	)
	session.setConductor(conductor)
	defer func() {
		cancel()
		conductor.Wait()
	}()

	if err := session.Emit(protocol.Message{Type: protocol.TypeConnected, Message: "Connected to interview"}); err != nil {
		h.logger.Warnf("session %s: %v", session.SessionID, err)
		return
	}

	go h.heartbeat(ctx, session)

	h.logger.Infof("session %s started for interview %s", session.SessionID, session.InterviewID)
	for {
		messageType, data, err := session.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && session.IsAlive() {
				h.logger.Warnf("websocket read error: %v", err)
			} else {
				h.logger.Infof("websocket connection closed for session %s", session.SessionID)
			}
			return
		}

		session.Touch()

		switch messageType {
		case websocket.TextMessage:
			if err := conductor.HandleText(ctx, data); errors.Is(err, interview.ErrTooManyErrors) {
				return
			}
		case websocket.BinaryMessage:
			conductor.HandleAudio(data)
		}
	}
}

func (h *WebSocketHandler) heartbeat(ctx context.Context, session *Session) {
	ticker := time.NewTicker(h.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := session.Emit(protocol.Control(protocol.TypeHeartbeat)); err != nil {
				return
			}
		}
	}
}

// Close shuts down the WebSocket handler
func (h *WebSocketHandler) Close() error {
	return h.connectionManager.Close()
}

func requestToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	frame := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, frame, time.Now().Add(time.Second))
	_ = conn.Close()
}
