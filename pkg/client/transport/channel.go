// Package transport keeps one logical interview connection alive across
// physical websocket reconnects.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/protocol"
)

// State of the logical connection
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Dialer opens physical connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Listener receives everything the channel observes. Calls are made from
// the channel's goroutines without any channel lock held.
type Listener interface {
	HandleMessage(msg protocol.Message)
	HandleState(state State)
	// HandleError receives warnings (ErrStale) and terminal errors.
	HandleError(err error)
}

type Option func(*Channel)

func WithDialer(d Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

func WithLogger(l *Logger.Logger) Option {
	return func(c *Channel) { c.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(c *Channel) { c.now = now }
}

// WithSleep replaces the wait between reconnect attempts.
func WithSleep(fn SleepFunc) Option {
	return func(c *Channel) { c.sleep = fn }
}

func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Channel) { c.retry = p }
}

// Channel is a single logical connection to the interview server.
type Channel struct {
	cfg      Config
	url      string
	listener Listener
	dialer   Dialer
	retry    *RetryPolicy
	sleep    SleepFunc
	now      func() time.Time
	log      *Logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// writeMu serializes frames on the wire, including the reconnect flush.
	// Lock order: writeMu, then mu.
	writeMu sync.Mutex

	mu           sync.Mutex
	state        State
	conn         *websocket.Conn
	connDone     chan struct{}
	gen          uint64
	pending      [][]byte
	rejected     int
	reconnecting bool
	lastActivity time.Time
	staleWarned  bool
	dials        int
}

// New validates cfg and prepares a channel. Nothing is dialed until Connect.
func New(cfg Config, listener Listener, opts ...Option) (*Channel, error) {
	cfg = cfg.withDefaults()
	u, err := buildURL(cfg)
	if err != nil {
		return nil, err
	}

	c := &Channel{
		cfg:      cfg,
		url:      u,
		listener: listener,
		sleep:    sleepContext,
		now:      time.Now,
		state:    StateDisconnected,
	}
	c.dialer = &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = NewRetryPolicy(cfg.MaxAttempts, ExponentialBackoff(cfg.BaseDelay, cfg.Factor, cfg.MaxDelay))
	}
	if c.listener == nil {
		c.listener = nopListener{}
	}
	c.log = Logger.OrNop(c.log).Named("transport")
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

func buildURL(cfg Config) (string, error) {
	if cfg.SessionID == "" {
		return "", errors.New("transport: session id is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("transport: invalid url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	u.Path = path.Join(u.Path, "/ws/interview", url.PathEscape(cfg.SessionID))
	if cfg.Token != "" {
		q := u.Query()
		q.Set("token", cfg.Token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Connect opens the first physical connection. Network failures are not
// returned; they start the backoff loop. Authentication failures and a
// closed channel are returned and are terminal.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	case StateConnecting, StateConnected, StateReconnecting:
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.mu.Unlock()
	c.listener.HandleState(StateConnecting)

	err := c.dial(ctx)
	switch {
	case err == nil:
		return nil
	case IsTerminal(err):
		c.terminate(err)
		return err
	default:
		c.log.Warnf("initial connect failed: %v", err)
		c.scheduleReconnect()
		return nil
	}
}

func (c *Channel) dial(ctx context.Context) error {
	c.mu.Lock()
	c.dials++
	c.mu.Unlock()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return fmt.Errorf("%w: handshake status %d", ErrUnauthorized, resp.StatusCode)
			case http.StatusNotFound:
				return fmt.Errorf("%w: handshake status %d", ErrSessionNotFound, resp.StatusCode)
			}
		}
		return err
	}
	return c.attach(conn)
}

// attach installs conn, flushes the pending queue and starts the loops.
// The flush happens under writeMu so no Send can overtake queued messages.
func (c *Channel) attach(conn *websocket.Conn) error {
	c.writeMu.Lock()
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		c.writeMu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.gen++
	gen := c.gen
	done := make(chan struct{})
	c.conn = conn
	c.connDone = done
	c.state = StateConnected
	c.retry.Reset()
	c.lastActivity = c.now()
	c.staleWarned = false
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	conn.SetPongHandler(func(string) error {
		c.touch()
		return nil
	})

	sent := 0
	var flushErr error
	for _, data := range pending {
		if flushErr = c.write(conn, websocket.TextMessage, data); flushErr != nil {
			break
		}
		sent++
	}
	if flushErr != nil {
		c.mu.Lock()
		c.pending = append(pending[sent:], c.pending...)
		c.mu.Unlock()
		c.log.Warnf("flush interrupted after %d of %d messages: %v", sent, len(pending), flushErr)
		conn.Close()
	} else if len(pending) > 0 {
		c.log.Infof("flushed %d pending messages", len(pending))
	}
	c.writeMu.Unlock()

	c.log.Infof("connected to %s", c.url)
	c.listener.HandleState(StateConnected)

	go c.readLoop(conn, gen)
	go c.keepalive(done)
	return nil
}

func (c *Channel) write(conn *websocket.Conn, messageType int, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(messageType, data)
}

// Send transmits msg immediately when connected, otherwise queues it for the
// next successful connection.
func (c *Channel) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("transport: encode %s: %w", msg.Type, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	conn := c.conn
	if conn == nil || c.state != StateConnected {
		err := c.enqueueLocked(data)
		c.mu.Unlock()
		if err != nil {
			c.log.Warnf("pending queue full, rejecting %s", msg.Type)
			return fmt.Errorf("%w: %s", err, msg.Type)
		}
		return nil
	}
	c.mu.Unlock()

	if err := c.write(conn, websocket.TextMessage, data); err != nil {
		c.log.Warnf("send %s failed, queued for reconnect: %v", msg.Type, err)
		c.mu.Lock()
		qerr := c.enqueueLocked(data)
		c.mu.Unlock()
		// the read loop observes the broken connection and reconnects
		conn.Close()
		if qerr != nil {
			return fmt.Errorf("%w: %s", qerr, msg.Type)
		}
	}
	return nil
}

// SendBinary writes an audio frame. Audio is real-time, so it is never
// queued: frames sent while disconnected are dropped with ErrNotConnected.
func (c *Channel) SendBinary(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()
	if conn == nil || !connected {
		return ErrNotConnected
	}

	if err := c.write(conn, websocket.BinaryMessage, data); err != nil {
		conn.Close()
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// enqueueLocked refuses new messages once the queue is full so that
// everything already accepted is still delivered exactly once.
func (c *Channel) enqueueLocked(data []byte) error {
	if len(c.pending) >= c.cfg.MaxPending {
		c.rejected++
		return ErrQueueFull
	}
	c.pending = append(c.pending, data)
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, gen, err)
			return
		}
		c.touch()
		if mt != websocket.TextMessage {
			continue
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			c.log.Warnf("dropping frame: %v", err)
			continue
		}
		c.listener.HandleMessage(msg)
	}
}

func (c *Channel) handleDisconnect(conn *websocket.Conn, gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.connDone != nil {
		close(c.connDone)
		c.connDone = nil
	}
	c.state = StateDisconnected
	c.mu.Unlock()
	conn.Close()

	code := websocket.CloseAbnormalClosure
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		code = ce.Code
	}

	switch protocol.ClassifyClose(code) {
	case protocol.CloseClassNormal:
		c.log.Infof("server closed the session normally")
		c.terminate(nil)
	case protocol.CloseClassAuth:
		c.terminate(fmt.Errorf("%w: close code %d", ErrUnauthorized, code))
	case protocol.CloseClassTerminal:
		c.terminate(fmt.Errorf("%w: close code %d", ErrSessionNotFound, code))
	default:
		c.log.Warnf("connection lost (code %d): %v", code, err)
		c.listener.HandleState(StateDisconnected)
		c.scheduleReconnect()
	}
}

func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	if c.state == StateClosed || c.reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.state = StateReconnecting
	c.mu.Unlock()
	c.listener.HandleState(StateReconnecting)

	go c.reconnectLoop()
}

func (c *Channel) reconnectLoop() {
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	for {
		c.mu.Lock()
		delay, ok := c.retry.Next()
		attempt := c.retry.Attempts()
		c.mu.Unlock()
		if !ok {
			c.log.Errorf("giving up after %d reconnect attempts", c.retry.MaxAttempts())
			c.terminate(ErrReconnectExhausted)
			return
		}

		c.log.Infof("reconnecting in %s (attempt %d/%d)", delay, attempt, c.retry.MaxAttempts())
		if err := c.sleep(c.ctx, delay); err != nil {
			return
		}
		if c.State() == StateClosed {
			return
		}

		err := c.dial(c.ctx)
		switch {
		case err == nil:
			return
		case IsTerminal(err):
			c.terminate(err)
			return
		default:
			c.log.Warnf("reconnect attempt %d failed: %v", attempt, err)
		}
	}
}

// keepalive pings on a fixed interval and raises a liveness warning when the
// server has been silent too long. It never closes the connection.
func (c *Channel) keepalive(done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.Send(protocol.Control(protocol.TypePing)); err != nil {
				return
			}
			c.checkLiveness()
		}
	}
}

func (c *Channel) checkLiveness() {
	c.mu.Lock()
	idle := c.now().Sub(c.lastActivity)
	warn := c.state == StateConnected && idle > c.cfg.InactivityTimeout && !c.staleWarned
	if warn {
		c.staleWarned = true
	}
	c.mu.Unlock()

	if warn {
		c.log.Warnf("no server activity for %s", idle)
		c.listener.HandleError(fmt.Errorf("%w for %s", ErrStale, idle.Round(time.Second)))
	}
}

func (c *Channel) touch() {
	c.mu.Lock()
	c.lastActivity = c.now()
	c.staleWarned = false
	c.mu.Unlock()
}

// terminate moves to StateClosed and reports err (if any) to the listener.
func (c *Channel) terminate(err error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	if c.connDone != nil {
		close(c.connDone)
		c.connDone = nil
	}
	c.pending = nil
	c.mu.Unlock()
	c.cancel()

	if conn != nil {
		conn.Close()
	}
	if err != nil {
		c.log.Errorf("channel terminated: %v", err)
	}
	c.listener.HandleState(StateClosed)
	if err != nil {
		c.listener.HandleError(err)
	}
}

// Close performs a normal, user-initiated closure. No reconnect follows.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	if c.connDone != nil {
		close(c.connDone)
		c.connDone = nil
	}
	c.pending = nil
	c.mu.Unlock()
	c.cancel()

	if conn != nil {
		msg := websocket.FormatCloseMessage(protocol.CloseNormal, "client closed")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
	}
	c.log.Infof("channel closed")
	c.listener.HandleState(StateClosed)
	return nil
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of queued control messages.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Channel) GetStats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]interface{}{
		"state":           c.state.String(),
		"reconnect_count": c.retry.Attempts(),
		"max_attempts":    c.retry.MaxAttempts(),
		"pending":         len(c.pending),
		"rejected":        c.rejected,
		"dials":           c.dials,
		"last_activity":   c.lastActivity,
	}
}

type nopListener struct{}

func (nopListener) HandleMessage(protocol.Message) {}
func (nopListener) HandleState(State)              {}
func (nopListener) HandleError(error)              {}
